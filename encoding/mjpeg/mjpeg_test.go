package mjpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMeta struct {
	done bool
	term string
}

func (f fakeMeta) Name() string    { return "testwalk" }
func (f fakeMeta) Epoch() int      { return 3 }
func (f fakeMeta) Env() int        { return 0 }
func (f fakeMeta) Time() float32   { return 0.44 }
func (f fakeMeta) Reward() float64 { return 1.5 }

func (f fakeMeta) Done() (bool, string) { return f.done, f.term }

func (f fakeMeta) State() string {
	return "t=  0.440  z= 0.98  vel=(+0.10 +0.00 -0.02)\njoint_a [#..........] -0.01\n"
}

func TestEncode(t *testing.T) {
	enc := NewEncoder(480, 640)

	require.NoError(t, enc.Encode(fakeMeta{}))
	require.NoError(t, enc.Encode(fakeMeta{done: true, term: "bad_z"}))

	assert.True(t, enc.W > 0 && enc.H > 0, "sizing happens on the first frame")
	assert.NoError(t, enc.Flush())
}
