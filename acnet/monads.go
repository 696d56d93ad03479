package acnet

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// maebe accumulates the first graph building error so the network can be
// assembled as a straight line of expressions.
type maebe struct {
	err error
}

func (m *maebe) do(f func() (*G.Node, error)) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = f(); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

// linear is a fully connected layer with a broadcast bias. The bias is
// (1, units) rather than batch shaped so weights stay interchangeable
// between nets built with different batch sizes.
func (m *maebe) linear(input *G.Node, units int, name string) *G.Node {
	if m.err != nil {
		return nil
	}
	w := G.NewMatrix(input.Graph(), Float, G.WithShape(input.Shape()[1], units), G.WithInit(G.GlorotN(1.0)), G.WithName(name+"_w"))
	xw := m.do(func() (*G.Node, error) { return G.Mul(input, w) })
	b := G.NewMatrix(input.Graph(), Float, G.WithShape(1, units), G.WithInit(G.Zeroes()), G.WithName(name+"_b"))
	return m.do(func() (*G.Node, error) { return G.BroadcastAdd(xw, b, nil, []byte{0}) })
}

func (m *maebe) rectify(input *G.Node) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = G.Rectify(input); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) reshape(input *G.Node, to tensor.Shape) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = G.Reshape(input, to); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) square(a *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Square(a) })
}

func (m *maebe) mean(a *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Mean(a) })
}

func (m *maebe) sum(a *G.Node, along int) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Sum(a, along) })
}

// scale multiplies elementwise by a compile time constant.
func (m *maebe) scale(a *G.Node, by float32) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Mul(a, G.NewConstant(by)) })
}

// shift adds a compile time constant elementwise.
func (m *maebe) shift(a *G.Node, by float32) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Add(a, G.NewConstant(by)) })
}

// min and max have no gorgonia op, so they are built from the |a-b|
// identity: min(a,b) = (a+b-|a-b|)/2 and max(a,b) = (a+b+|a-b|)/2.
func (m *maebe) min(a, b *G.Node) *G.Node {
	sum := m.do(func() (*G.Node, error) { return G.Add(a, b) })
	gap := m.do(func() (*G.Node, error) { return G.Sub(a, b) })
	gap = m.do(func() (*G.Node, error) { return G.Abs(gap) })
	return m.scale(m.do(func() (*G.Node, error) { return G.Sub(sum, gap) }), 0.5)
}

func (m *maebe) max(a, b *G.Node) *G.Node {
	sum := m.do(func() (*G.Node, error) { return G.Add(a, b) })
	gap := m.do(func() (*G.Node, error) { return G.Sub(a, b) })
	gap = m.do(func() (*G.Node, error) { return G.Abs(gap) })
	return m.scale(m.do(func() (*G.Node, error) { return G.Add(sum, gap) }), 0.5)
}

func (m *maebe) clamp(a *G.Node, lo, hi float32) *G.Node {
	return m.min(m.max(a, G.NewConstant(lo)), G.NewConstant(hi))
}

// gaussianLogProb is the log density of actions under a diagonal gaussian
// N(mean, std^2), summed over the action dimensions. Shapes are
// (batch, dims) in, (batch) out.
func (m *maebe) gaussianLogProb(actions, mean, std *G.Node, dims int) *G.Node {
	diff := m.do(func() (*G.Node, error) { return G.Sub(actions, mean) })
	z := m.scale(m.square(m.do(func() (*G.Node, error) { return G.HadamardDiv(diff, std) })), -0.5)
	logStd := m.do(func() (*G.Node, error) { return G.Log(std) })
	perDim := m.do(func() (*G.Node, error) { return G.Sub(z, logStd) })
	return m.shift(m.sum(perDim, 1), -float32(dims)*halfLog2Pi)
}

// gaussianEntropy is the mean entropy of a batch of diagonal gaussians,
// summed over the action dimensions.
func (m *maebe) gaussianEntropy(std *G.Node) *G.Node {
	logStd := m.do(func() (*G.Node, error) { return G.Log(std) })
	return m.mean(m.sum(m.shift(logStd, halfLog2PiE), 1))
}
