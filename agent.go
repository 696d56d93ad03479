package ksim

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pravsels/ksim/acnet"
	"github.com/pravsels/ksim/rollout"
)

// An Agent owns the training network and a pool of inference clones. The
// tape machine inside an inferencer is not safe for concurrent use, so a
// rollout worker borrows one exclusively for a whole batch, and ad-hoc
// Infer calls borrow through a channel. The two modes must not overlap.
type Agent struct {
	NN *acnet.AC

	sync.Mutex
	inferers []*acnet.Inferencer
	pool     chan rollout.Inferer
}

func newAgent(nn *acnet.AC) *Agent {
	return &Agent{NN: nn}
}

// SwitchToInference rebuilds the inference pool from the current training
// weights. Stale inferers are closed first.
func (a *Agent) SwitchToInference(size int) error {
	a.Lock()
	defer a.Unlock()

	if err := a.closeInferers(); err != nil {
		return err
	}
	a.pool = make(chan rollout.Inferer, size)
	for i := 0; i < size; i++ {
		inf, err := acnet.Infer(a.NN)
		if err != nil {
			return err
		}
		a.inferers = append(a.inferers, inf)
		a.pool <- inf
	}
	return nil
}

// Policies hands out the whole pool for a batched rollout, one policy per
// worker.
func (a *Agent) Policies() []rollout.Inferer {
	a.Lock()
	defer a.Unlock()

	ps := make([]rollout.Inferer, len(a.inferers))
	for i, inf := range a.inferers {
		ps[i] = inf
	}
	return ps
}

// Infer runs one observation through a pooled clone. It implements
// rollout.Inferer so an Agent can be used directly as a policy. The
// inferencer reuses its output buffers, so they are copied before it goes
// back into the pool.
func (a *Agent) Infer(input []float32) ([]float32, []float32, float32, error) {
	inf := <-a.pool
	m, s, value, err := inf.Infer(input)
	if err != nil {
		a.pool <- inf
		return nil, nil, 0, err
	}
	mean := append([]float32(nil), m...)
	std := append([]float32(nil), s...)
	a.pool <- inf
	return mean, std, value, nil
}

func (a *Agent) Close() error {
	a.Lock()
	defer a.Unlock()
	return a.closeInferers()
}

func (a *Agent) closeInferers() error {
	var allErrs manyErr
	for _, inf := range a.inferers {
		if err := inf.Close(); err != nil {
			allErrs = append(allErrs, err)
		}
	}
	a.inferers = a.inferers[:0]
	if len(allErrs) > 0 {
		return allErrs
	}
	return nil
}

type manyErr []error

func (err manyErr) Error() string {
	var buf bytes.Buffer
	for _, e := range err {
		fmt.Fprintln(&buf, e.Error())
	}
	return buf.String()
}
