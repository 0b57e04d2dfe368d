package fileinput

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Location names a line in an Input file.
type Location struct {
	Name string
	Line int
}

// Line combines a Location along with a bytes.Buffer holding its content.
type Line struct {
	Location
	bytes.Buffer
}

func (loc Location) String() string { return fmt.Sprintf("%v:%v", loc.Name, loc.Line) }
func (il *Line) String() string     { return fmt.Sprintf("%v %q", il.Location, il.Buffer.String()) }

// Input implements sequential line reading through a Queue of one or more
// input streams. The last read line is retained in Last for user feedback.
type Input struct {
	Queue []io.Reader
	Last  Line

	br  *bufio.Reader
	cur io.Reader
}

// ReadLine reads the next line, without its line ending, into Last and
// returns it. Rolls over to the next Queue entry at the end of each stream;
// returns io.EOF once every stream has been exhausted.
func (in *Input) ReadLine() (*Line, error) {
	for {
		if in.br == nil && !in.nextIn() {
			return nil, io.EOF
		}

		b, err := in.br.ReadBytes('\n')
		if len(b) > 0 {
			in.Last.Reset()
			in.Last.Line++
			in.Last.Write(bytes.TrimRight(b, "\r\n"))
			return &in.Last, nil
		}
		if err != io.EOF {
			return nil, err
		}
		in.br = nil
	}
}

func (in *Input) nextIn() bool {
	if cl, ok := in.cur.(io.Closer); ok {
		cl.Close()
	}
	in.cur = nil
	if len(in.Queue) == 0 {
		return false
	}
	in.cur = in.Queue[0]
	in.Queue = in.Queue[1:]
	in.br = bufio.NewReader(in.cur)
	in.Last.Reset()
	in.Last.Name = nameOf(in.cur)
	in.Last.Line = 0
	return true
}

// Named attaches a name to an io.Reader for use in Locations.
func Named(name string, r io.Reader) io.Reader { return namedReader{r, name} }

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}
