// Package acnet is the gaussian actor-critic network and its PPO update,
// built as a single gorgonia expression graph per network: a forward pass
// producing the action distribution and state value, and for training
// graphs the clipped surrogate loss with its gradients.
package acnet

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

var Float = G.Float32

// AC is the actor-critic pair. The actor and critic are separate MLPs
// over the same encoded input; the actor ends in a tanh-scaled mean head
// and a sigmoid-bounded std head, the critic in a scalar value head.
type AC struct {
	Config

	g     *G.ExprGraph
	input *G.Node

	// training placeholders, nil when FwdOnly
	actions     *G.Node
	oldLogProbs *G.Node
	advantages  *G.Node
	returns     *G.Node
	oldValues   *G.Node

	meanOut  *G.Node
	stdOut   *G.Node
	valueOut *G.Node

	meanVal  G.Value
	stdVal   G.Value
	valueVal G.Value

	policyObj  G.Value
	valueObj   G.Value
	entropyObj G.Value
	totalObj   G.Value
	avgRatio   G.Value
	avgLogDiff G.Value
}

// New returns a new, uninitialized *AC.
func New(conf Config) *AC {
	return &AC{Config: conf}
}

func (a *AC) Init() error {
	a.reset()
	a.g = G.NewGraph()
	mean, std, value, err := a.fwd()
	if err != nil {
		return err
	}
	return a.bwd(mean, std, value)
}

func (a *AC) fwd() (mean, std, value *G.Node, err error) {
	a.input = G.NewMatrix(a.g, Float, G.WithShape(a.BatchSize, a.InputDim), G.WithName("Input"))

	var m maebe
	actor := a.input
	for i := 0; i < a.Depth; i++ {
		actor = m.rectify(m.linear(actor, a.Hidden, fmt.Sprintf("Actor%d", i)))
	}
	mean = m.linear(actor, a.ActionDim, "Mean")
	mean = m.do(func() (*G.Node, error) { return G.Tanh(mean) })
	mean = m.scale(mean, a.MeanScale)

	std = m.linear(actor, a.ActionDim, "Std")
	std = m.do(func() (*G.Node, error) { return G.Sigmoid(std) })
	std = m.scale(std, a.MaxStd-a.MinStd)
	std = m.shift(std, a.MinStd)

	critic := a.input
	for i := 0; i < a.Depth; i++ {
		critic = m.rectify(m.linear(critic, a.Hidden, fmt.Sprintf("Critic%d", i)))
	}
	value = m.linear(critic, 1, "Value")
	value = m.reshape(value, tensor.Shape{a.BatchSize})
	if m.err != nil {
		return nil, nil, nil, m.err
	}

	a.meanOut, a.stdOut, a.valueOut = mean, std, value
	G.Read(a.meanOut, &a.meanVal)
	G.Read(a.stdOut, &a.stdVal)
	G.Read(a.valueOut, &a.valueVal)
	return mean, std, value, nil
}

func (a *AC) bwd(mean, std, value *G.Node) error {
	if a.FwdOnly {
		return nil
	}
	a.actions = G.NewMatrix(a.g, Float, G.WithShape(a.BatchSize, a.ActionDim), G.WithName("Actions"))
	a.oldLogProbs = G.NewVector(a.g, Float, G.WithShape(a.BatchSize), G.WithName("OldLogProbs"))
	a.advantages = G.NewVector(a.g, Float, G.WithShape(a.BatchSize), G.WithName("Advantages"))
	a.returns = G.NewVector(a.g, Float, G.WithShape(a.BatchSize), G.WithName("Returns"))
	a.oldValues = G.NewVector(a.g, Float, G.WithShape(a.BatchSize), G.WithName("OldValues"))

	var m maebe
	logProb := m.gaussianLogProb(a.actions, mean, std, a.ActionDim)
	logDiff := m.do(func() (*G.Node, error) { return G.Sub(logProb, a.oldLogProbs) })
	ratio := m.do(func() (*G.Node, error) { return G.Exp(logDiff) })

	// clipped surrogate objective
	clipped := m.clamp(ratio, 1-a.Clip, 1+a.Clip)
	surr1 := m.do(func() (*G.Node, error) { return G.HadamardProd(ratio, a.advantages) })
	surr2 := m.do(func() (*G.Node, error) { return G.HadamardProd(clipped, a.advantages) })
	policyObj := m.mean(m.min(surr1, surr2))

	// clipped value loss
	verr := m.square(m.do(func() (*G.Node, error) { return G.Sub(value, a.returns) }))
	vGap := m.clamp(m.do(func() (*G.Node, error) { return G.Sub(value, a.oldValues) }), -a.Clip, a.Clip)
	vClipped := m.do(func() (*G.Node, error) { return G.Add(a.oldValues, vGap) })
	cerr := m.square(m.do(func() (*G.Node, error) { return G.Sub(vClipped, a.returns) }))
	valueObj := m.scale(m.mean(m.max(verr, cerr)), 0.5)

	entropy := m.gaussianEntropy(std)

	weightedValue := m.scale(valueObj, a.ValueCoef)
	weightedEntropy := m.scale(entropy, a.EntropyCoef)
	total := m.do(func() (*G.Node, error) { return G.Sub(policyObj, weightedValue) })
	total = m.do(func() (*G.Node, error) { return G.Add(total, weightedEntropy) })
	loss := m.do(func() (*G.Node, error) { return G.Neg(total) })

	avgRatio := m.mean(ratio)
	avgLogDiff := m.mean(logDiff)
	if m.err != nil {
		return m.err
	}

	G.Read(policyObj, &a.policyObj)
	G.Read(valueObj, &a.valueObj)
	G.Read(entropy, &a.entropyObj)
	G.Read(total, &a.totalObj)
	G.Read(avgRatio, &a.avgRatio)
	G.Read(avgLogDiff, &a.avgLogDiff)

	if _, err := G.Grad(loss, a.Model()...); err != nil {
		return err
	}
	return nil
}

// Model returns the learnable weights, excluding the data placeholders.
func (a *AC) Model() G.Nodes {
	retVal := make(G.Nodes, 0, a.g.Nodes().Len())
	for _, n := range a.g.AllNodes() {
		if n.IsVar() && !a.isPlaceholder(n) {
			retVal = append(retVal, n)
		}
	}
	return retVal
}

func (a *AC) isPlaceholder(n *G.Node) bool {
	return n == a.input || n == a.actions || n == a.oldLogProbs ||
		n == a.advantages || n == a.returns || n == a.oldValues
}

// Clone deep-copies the network, weights included, so the copy can be
// checkpointed or trained on independently.
func (a *AC) Clone() (*AC, error) {
	a2 := New(a.Config)
	if err := a2.Init(); err != nil {
		return nil, err
	}

	model := a.Model()
	model2 := a2.Model()
	for i, n := range model {
		v, err := G.CloneValue(n.Value())
		if err != nil {
			return nil, err
		}
		if err := G.Let(model2[i], v); err != nil {
			return nil, err
		}
	}
	return a2, nil
}

func (a *AC) reset() {
	a.g = nil
	a.input = nil
	a.actions = nil
	a.oldLogProbs = nil
	a.advantages = nil
	a.returns = nil
	a.oldValues = nil

	a.meanOut = nil
	a.stdOut = nil
	a.valueOut = nil
}

func (a *AC) GobEncode() (retVal []byte, err error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, n := range a.Model() {
		v := n.Value()
		if err = enc.Encode(&v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (a *AC) GobDecode(p []byte) error {
	a.reset()
	if err := a.Init(); err != nil {
		return err
	}

	buf := bytes.NewBuffer(p)
	dec := gob.NewDecoder(buf)
	for _, n := range a.Model() {
		var v G.Value
		if err := dec.Decode(&v); err != nil {
			return err
		}
		G.Let(n, v)
	}
	return nil
}
