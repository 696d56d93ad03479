package ksim

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pravsels/ksim/acnet"
)

// Checkpoint couples saved network weights with training progress.
type Checkpoint struct {
	Epoch      int
	MeanReward float64
}

// SaveCheckpoint writes the checkpoint meta followed by the network
// weights to filename.
func SaveCheckpoint(filename string, nn *acnet.AC, ck Checkpoint) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	if err := enc.Encode(ck); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(enc.Encode(nn))
}

// LoadCheckpoint reads a file written by SaveCheckpoint into a network
// built from conf. The conf must describe the same architecture the
// checkpoint was trained with.
func LoadCheckpoint(filename string, conf acnet.Config) (*acnet.AC, Checkpoint, error) {
	var ck Checkpoint
	f, err := os.Open(filename)
	if err != nil {
		return nil, ck, errors.WithStack(err)
	}
	defer f.Close()

	dec := gob.NewDecoder(f)
	if err := dec.Decode(&ck); err != nil {
		return nil, ck, errors.WithStack(err)
	}
	nn := acnet.New(conf)
	if err := dec.Decode(nn); err != nil {
		return nil, ck, errors.WithStack(err)
	}
	return nn, ck, nil
}

// newRunDir creates <root>/<name>-<short uuid> for this run's artifacts.
func newRunDir(root, name string) (string, error) {
	dir := filepath.Join(root, fmt.Sprintf("%s-%s", name, uuid.New().String()[:8]))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.WithStack(err)
	}
	return dir, nil
}
