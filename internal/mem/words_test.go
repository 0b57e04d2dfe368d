package mem_test

import (
	"errors"
	"log"
	"os"
	"testing"

	"github.com/jcorbin/tagvm/internal/logio"
	"github.com/jcorbin/tagvm/internal/mem"
	"github.com/jcorbin/tagvm/internal/panicerr"
	"github.com/stretchr/testify/require"
)

func Test_Words(t *testing.T) {
	for _, tc := range []wordsTestCase{
		wordsTest("basic",
			"init", func(t *testing.T, m *mem.Words) {
				m.PageSize = 4
				require.Equal(t, uint(0), m.Size(), "expected 0 initial size")
				_, err := m.Load(0)
				expectBoundsError(t, err, 0)
			},

			"grow 3", func(t *testing.T, m *mem.Words) {
				base, err := m.Grow(3)
				require.NoError(t, err, "must grow")
				require.Equal(t, uint(0), base, "expected first base @0")
				require.Equal(t, uint(3), m.Size())
				expectMemValuesAt(t, m, 0, 0, 0, 0)
				_, err = m.Load(3)
				expectBoundsError(t, err, 3)
			},

			"{9, 8, 7} -> 0", func(t *testing.T, m *mem.Words) {
				require.NoError(t, m.Stor(0, 9, 8, 7), "must stor @0")
				expectMemValueAt(t, m, 1, 8)
				expectMemValuesAt(t, m, 0, 9, 8, 7)
			},

			"grow across pages", func(t *testing.T, m *mem.Words) {
				base, err := m.Grow(7)
				require.NoError(t, err, "must grow")
				require.Equal(t, uint(3), base, "expected base to follow prior growth")
				require.NoError(t, m.Stor(2, 1, 2, 3, 4, 5, 6), "must stor across the page boundary")
				//  0  1  2  3  :  9  8  1  2
				//  4  5  6  7  :  3  4  5  6
				//  8  9  -  -  :  0  0  -  -
				require.Equal(t, mem.WordsDump{
					Size: 10,
					Pages: [][]uint64{
						{9, 8, 1, 2},
						{3, 4, 5, 6},
						{0, 0, 0, 0},
					},
				}, m.Dump(), "expected three pages")
				expectMemValuesAt(t, m, 1, 8, 1, 2, 3, 4, 5, 6, 0, 0)
			},

			"no partial stor", func(t *testing.T, m *mem.Words) {
				err := m.Stor(8, 42, 43, 44)
				expectBoundsError(t, err, 8)
				expectMemValuesAt(t, m, 8, 0, 0)
			},
		),

		wordsTest("limit",
			"init", func(t *testing.T, m *mem.Words) {
				m.PageSize = 8
				m.Limit = 12
			},

			"grow to limit", func(t *testing.T, m *mem.Words) {
				_, err := m.Grow(12)
				require.NoError(t, err, "must grow up to the limit")
			},

			"grow past limit", func(t *testing.T, m *mem.Words) {
				_, err := m.Grow(1)
				var lim mem.LimitError
				require.True(t, errors.As(err, &lim), "expected limit error, got %v", err)
				require.Equal(t, uint(13), lim.Size)
				require.Equal(t, uint(12), m.Size(), "expected no growth")
			},
		),
	} {
		t.Run(tc.name, func(t *testing.T) {
			tcLogOut := &logio.Writer{Logf: t.Logf}
			log.SetOutput(tcLogOut)
			defer log.SetOutput(os.Stderr)

			var m mem.Words
			defer func() {
				if t.Failed() {
					d := m.Dump()
					t.Logf("size: %v", d.Size)
					t.Logf("pages: %v", d.Pages)
				}
			}()

			for _, step := range tc.steps {
				if !t.Run(step.name, func(t *testing.T) {
					stepLogOut := &logio.Writer{Logf: t.Logf}
					log.SetOutput(stepLogOut)
					defer log.SetOutput(tcLogOut)

					isolateTest(t, step.bind(&m))
				}) {
					break
				}
			}
		})
	}
}

func isolateTest(t *testing.T, f func(t *testing.T)) {
	if err := panicerr.Recover(t.Name(), func() error {
		f(t)
		return nil
	}); err != nil {
		t.Logf("%+v", err)
		t.Fail()
	}
}

func expectBoundsError(t *testing.T, err error, addr uint) {
	var be mem.BoundsError
	require.True(t, errors.As(err, &be), "expected bounds error, got %v", err)
	require.Equal(t, addr, be.Addr, "expected bounds error address")
}

func expectMemValueAt(t *testing.T, m *mem.Words, addr uint, value uint64) {
	val, err := m.Load(addr)
	require.NoError(t, err, "unexpected load @0x%x error", addr)
	require.Equal(t, value, val, "expected value @0x%x", addr)
}

func expectMemValuesAt(t *testing.T, m *mem.Words, addr uint, values ...uint64) {
	buf := make([]uint64, len(values))
	require.NoError(t, m.LoadInto(addr, buf),
		"must load %v values from @0x%x", len(values), addr)
	require.Equal(t, values, buf, "expected values @0x%x", addr)
}

func wordsTest(name string, args ...interface{}) (tc wordsTestCase) {
	tc.name = name
	for i := 0; i < len(args); i++ {
		var step wordsTestStep

		step.name = args[i].(string)

		if i++; i >= len(args) {
			panic("wordsTest: missing function argument after name")
		}
		step.f = args[i].(func(t *testing.T, m *mem.Words))

		tc.steps = append(tc.steps, step)
	}
	return tc
}

type wordsTestCase struct {
	name  string
	steps []wordsTestStep
}

type wordsTestStep struct {
	name string
	f    func(t *testing.T, m *mem.Words)

	m *mem.Words
}

func (step wordsTestStep) bind(m *mem.Words) func(t *testing.T) {
	step.m = m
	return step.boundTest
}

func (step wordsTestStep) boundTest(t *testing.T) {
	step.f(t, step.m)
}
