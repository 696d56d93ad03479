package acnet

import (
	"math"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

type slicer struct {
	v   tensor.View
	err error
}

func (s *slicer) Slice(a *tensor.Dense, slices ...tensor.Slice) *tensor.Dense {
	if s.err != nil {
		return nil
	}
	if s.v, s.err = a.Slice(slices...); s.err != nil {
		s.err = errors.Wrapf(s.err, "Slicer failed")
		return nil
	}
	return s.v.(*tensor.Dense)
}

type rs struct {
	start, end, step int
}

func (s rs) Start() int { return s.start }
func (s rs) End() int   { return s.end }
func (s rs) Step() int  { return s.step }

// sli creates a ranged slice. It takes an optional step param.
func sli(start, end int, opts ...int) rs {
	step := 1
	if len(opts) > 0 {
		step = opts[0]
	}
	return rs{
		start: start,
		end:   end,
		step:  step,
	}
}

// scalar reads a single float out of a gorgonia value. One element
// tensors may surface their data as a bare float32, so both forms are
// handled.
func scalar(v G.Value) float64 {
	switch data := v.Data().(type) {
	case float32:
		return float64(data)
	case []float32:
		return float64(data[0])
	}
	return math.NaN()
}

// vector reads a float slice out of a gorgonia value, wrapping the one
// element scalar form.
func vector(v G.Value) []float32 {
	switch data := v.Data().(type) {
	case float32:
		return []float32{data}
	case []float32:
		return data
	}
	return nil
}
