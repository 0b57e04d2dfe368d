// gen_vm_expects writes the expectVM* functions of vm_expects_test.go, one
// per vmTestCase.expect* builder method in vm_test.go, so that expectations
// can be passed around as values and applied with vmTestCase.apply.
//
// Usage: go run scripts/gen_vm_expects.go -- [SRC [DST]]
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"io"
	"log"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
)

const receiverType = "vmTestCase"

func main() {
	flag.Parse()
	src, dst := "vm_test.go", "vm_expects_test.go"
	if args := flag.Args(); len(args) > 0 {
		src = args[0]
		if len(args) > 1 {
			dst = args[1]
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := run(ctx, src, dst); err != nil {
		log.Fatalln(err)
	}
}

// run renders into a pipe read by gofmt, which writes dst.
func run(ctx context.Context, src, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	pr, pw := io.Pipe()
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		gofmt := exec.CommandContext(ctx, "gofmt")
		gofmt.Stdin = pr
		gofmt.Stdout = out
		gofmt.Stderr = os.Stderr
		if err := gofmt.Run(); err != nil {
			pr.CloseWithError(err)
			return fmt.Errorf("gofmt failed: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		gen, err := scan(src)
		if err == nil {
			gen.Generate = strings.Join(os.Args[1:], " ")
			err = expectsTemplate.Execute(pw, gen)
		}
		pw.CloseWithError(err)
		return err
	})

	return eg.Wait()
}

type generated struct {
	Source   string
	Generate string
	Imports  []string
	Expects  []expectation
}

type expectation struct {
	Method string // e.g. expectStack
	Name   string // e.g. expectVMStack
	Params string // e.g. values ...value.Value
	Args   string // e.g. values...
}

// scan collects every argument taking expect* method on receiverType, and the
// imports their parameter types need.
func scan(src string) (gen generated, err error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, src, nil, 0)
	if err != nil {
		return gen, err
	}
	gen.Source = src

	importPaths := make(map[string]string)
	for _, spec := range file.Imports {
		path, _ := strconv.Unquote(spec.Path.Value)
		name := path[strings.LastIndex(path, "/")+1:]
		if spec.Name != nil {
			name = spec.Name.Name
		}
		importPaths[name] = path
	}
	needed := make(map[string]bool)

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || !isReceiver(fn) || !strings.HasPrefix(fn.Name.Name, "expect") {
			continue
		}
		params := fn.Type.Params.List
		if len(params) == 0 {
			continue
		}

		var ps, as []string
		for _, field := range params {
			var typ bytes.Buffer
			if err := format.Node(&typ, fset, field.Type); err != nil {
				return gen, err
			}
			ast.Inspect(field.Type, func(n ast.Node) bool {
				if sel, ok := n.(*ast.SelectorExpr); ok {
					if id, ok := sel.X.(*ast.Ident); ok {
						needed[id.Name] = true
					}
				}
				return true
			})
			_, variadic := field.Type.(*ast.Ellipsis)
			for _, name := range field.Names {
				ps = append(ps, name.Name+" "+typ.String())
				if variadic {
					as = append(as, name.Name+"...")
				} else {
					as = append(as, name.Name)
				}
			}
		}

		gen.Expects = append(gen.Expects, expectation{
			Method: fn.Name.Name,
			Name:   "expectVM" + strings.TrimPrefix(fn.Name.Name, "expect"),
			Params: strings.Join(ps, ", "),
			Args:   strings.Join(as, ", "),
		})
	}

	for name := range needed {
		if path, ok := importPaths[name]; ok {
			gen.Imports = append(gen.Imports, path)
		}
	}
	sort.Strings(gen.Imports)
	return gen, nil
}

func isReceiver(fn *ast.FuncDecl) bool {
	if fn.Recv == nil || len(fn.Recv.List) != 1 {
		return false
	}
	id, ok := fn.Recv.List[0].Type.(*ast.Ident)
	return ok && id.Name == receiverType
}

var expectsTemplate = template.Must(template.New("expects").Parse(`package main

// @generated from {{ .Source }}

//go:generate go run scripts/gen_vm_expects.go {{ .Generate }}
{{ if .Imports }}
import (
{{- range .Imports }}
	{{ printf "%q" . }}
{{- end }}
)
{{ end }}
{{- range .Expects }}
func {{ .Name }}({{ .Params }}) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.{{ .Method }}({{ .Args }})
	}
}
{{ end }}`))
