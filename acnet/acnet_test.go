package acnet

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConf() Config {
	conf := DefaultConf(4, 2)
	conf.Hidden = 8
	conf.Depth = 2
	conf.BatchSize = 8
	return conf
}

func TestACInit(t *testing.T) {
	a := New(smallConf())
	if err := a.Init(); err != nil {
		t.Fatalf("%+v", err)
	}

	// two heads of Depth hidden layers plus mean, std and value heads,
	// each layer a weight and a bias
	assert.Equal(t, 4*a.Depth+6, len(a.Model()), "unexpected weight count")
}

func TestACInitFwdOnly(t *testing.T) {
	conf := smallConf()
	conf.FwdOnly = true
	conf.BatchSize = 1
	a := New(conf)
	if err := a.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Nil(t, a.actions, "fwd only graph must not build training placeholders")
	assert.Equal(t, 4*a.Depth+6, len(a.Model()))
}

func TestInferencerSanity(t *testing.T) {
	a := New(smallConf())
	if err := a.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	inferer, err := Infer(a)
	if err != nil {
		t.Fatal(err)
	}
	defer inferer.Close()

	mean, std, value, err := inferer.Infer([]float32{0.1, -0.2, 0.3, -0.4})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, mean, a.ActionDim)
	require.Len(t, std, a.ActionDim)
	for i := range mean {
		assert.True(t, mean[i] >= -a.MeanScale && mean[i] <= a.MeanScale, "mean[%d] = %v", i, mean[i])
		assert.True(t, std[i] >= a.MinStd && std[i] <= a.MaxStd, "std[%d] = %v", i, std[i])
	}
	assert.False(t, math32.IsNaN(value), "value is NaN")
}

func TestInferencerDeterministic(t *testing.T) {
	a := New(smallConf())
	if err := a.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	inferer, err := Infer(a)
	if err != nil {
		t.Fatal(err)
	}
	defer inferer.Close()

	input := []float32{0.5, 0.5, -0.5, -0.5}
	mean1, std1, value1, err := inferer.Infer(input)
	require.NoError(t, err)
	m1 := append([]float32(nil), mean1...)
	s1 := append([]float32(nil), std1...)

	mean2, std2, value2, err := inferer.Infer(input)
	require.NoError(t, err)
	assert.Equal(t, m1, mean2)
	assert.Equal(t, s1, std2)
	assert.Equal(t, value1, value2)
}

func TestInferencerSnapshotsWeights(t *testing.T) {
	a := New(smallConf())
	if err := a.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	inferer, err := Infer(a)
	if err != nil {
		t.Fatal(err)
	}
	defer inferer.Close()

	input := []float32{1, 0, 0, 1}
	mean, _, _, err := inferer.Infer(input)
	require.NoError(t, err)
	before := append([]float32(nil), mean...)

	// wreck the source network; the inferencer must not notice
	for _, n := range a.Model() {
		data := vector(n.Value())
		for i := range data {
			data[i] = 99
		}
	}
	mean, _, _, err = inferer.Infer(input)
	require.NoError(t, err)
	assert.Equal(t, before, mean)
}

func TestInferencerRejectsBadWidth(t *testing.T) {
	a := New(smallConf())
	if err := a.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	inferer, err := Infer(a)
	if err != nil {
		t.Fatal(err)
	}
	defer inferer.Close()

	_, _, _, err = inferer.Infer([]float32{1, 2})
	assert.Error(t, err)
}

func TestCloneCopiesWeights(t *testing.T) {
	a := New(smallConf())
	if err := a.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	a2, err := a.Clone()
	if err != nil {
		t.Fatal(err)
	}

	model, model2 := a.Model(), a2.Model()
	require.Equal(t, len(model), len(model2))
	for i := range model {
		assert.Equal(t, model[i].Value().Data(), model2[i].Value().Data(), "weight %d differs", i)
	}

	// the copy owns its weights
	data := vector(model[0].Value())
	data[0] += 42
	assert.NotEqual(t, model[0].Value().Data(), model2[0].Value().Data())
}

func TestEncodeDecode(t *testing.T) {
	assert := assert.New(t)
	a := New(smallConf())
	if err := a.Init(); err != nil {
		t.Fatalf("%+v", err)
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(a); err != nil {
		t.Fatalf("Encoding Failure %v", err)
	}

	dec := gob.NewDecoder(&buf)
	a2 := New(smallConf())
	if err := dec.Decode(a2); err != nil {
		t.Fatalf("Decoding Failure %v", err)
	}

	model := a.Model()
	model2 := a2.Model()
	for i, n := range model {
		assert.Equal(n.Value().Data(), model2[i].Value().Data(), "%d - %v vs %v should have the same data", i, model[i], model2[i])
	}
}
