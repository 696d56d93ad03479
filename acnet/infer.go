package acnet

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Inferencer holds a fwd-only batch-1 clone of a trained *AC and a reused
// VM, so rollout workers can query the policy without rebuilding a
// machine per step.
type Inferencer struct {
	a *AC
	m G.VM

	input *tensor.Dense
}

// Infer clones ac into a fwd-only inference structure. The clone copies
// weights by value, so the trained network can keep updating while
// inferencers built from older snapshots drain.
func Infer(ac *AC) (*Inferencer, error) {
	conf := ac.Config
	conf.FwdOnly = true
	conf.BatchSize = 1
	retVal := &Inferencer{
		a:     New(conf),
		input: tensor.New(tensor.WithShape(1, conf.InputDim), tensor.Of(Float)),
	}
	if err := retVal.a.Init(); err != nil {
		return nil, err
	}

	infModel := retVal.a.Model()
	for i, n := range ac.Model() {
		v, err := G.CloneValue(n.Value())
		if err != nil {
			return nil, err
		}
		if err := G.Let(infModel[i], v); err != nil {
			return nil, err
		}
	}

	retVal.m = G.NewTapeMachine(retVal.a.g)
	return retVal, nil
}

// Infer runs one forward pass. The returned slices alias the network
// outputs and stay valid until the next Infer call.
func (inf *Inferencer) Infer(input []float32) (mean, std []float32, value float32, err error) {
	if len(input) != inf.a.InputDim {
		return nil, nil, 0, errors.Errorf("infer: input width %d, network wants %d", len(input), inf.a.InputDim)
	}
	copy(inf.input.Data().([]float32), input)

	inf.m.Reset()
	G.Let(inf.a.input, inf.input)
	if err = inf.m.RunAll(); err != nil {
		return nil, nil, 0, err
	}
	mean = vector(inf.a.meanVal)
	std = vector(inf.a.stdVal)
	value = float32(scalar(inf.a.valueVal))
	return mean[:inf.a.ActionDim], std[:inf.a.ActionDim], value, nil
}

// Close implements a closer, because a gorgonia VM is a resource.
func (inf *Inferencer) Close() error { return inf.m.Close() }
