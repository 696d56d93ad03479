package ksim

import (
	"os"

	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/pravsels/ksim/acnet"
	"github.com/pravsels/ksim/env"
)

// Statistics accumulates one row per training epoch and mirrors the table
// to a CSV file as it grows. Reward term columns are fixed at creation
// from the task's term list.
type Statistics struct {
	Table *etable.Table

	terms []string
	file  *os.File
}

func makeStatistics(terms []string) *Statistics {
	dt := &etable.Table{}
	dt.SetMetaData("name", "TrainLog")
	dt.SetMetaData("desc", "per-epoch training statistics")
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", "6")

	sch := etable.Schema{
		{Name: "Epoch", Type: etensor.INT64},
		{Name: "Steps", Type: etensor.INT64},
		{Name: "MeanReward", Type: etensor.FLOAT64},
		{Name: "StdReward", Type: etensor.FLOAT64},
		{Name: "MeanEpisodeLength", Type: etensor.FLOAT64},
		{Name: "PolicyObjective", Type: etensor.FLOAT64},
		{Name: "ValueObjective", Type: etensor.FLOAT64},
		{Name: "EntropyObjective", Type: etensor.FLOAT64},
		{Name: "TotalObjective", Type: etensor.FLOAT64},
		{Name: "AverageRatio", Type: etensor.FLOAT64},
		{Name: "AverageLogProbDiff", Type: etensor.FLOAT64},
		{Name: "AverageAdvantage", Type: etensor.FLOAT64},
	}
	for _, term := range terms {
		sch = append(sch, etable.Column{Name: term, Type: etensor.FLOAT64})
	}
	dt.SetFromSchema(sch, 0)

	return &Statistics{Table: dt, terms: terms}
}

// LogToCSV mirrors every subsequently logged row into filename,
// tab-separated, headers first.
func (s *Statistics) LogToCSV(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	s.file = f
	return nil
}

// Log appends one epoch row and writes it through to the CSV file if one
// is attached.
func (s *Statistics) Log(epoch int, set *env.RolloutSet, ts *acnet.TrainStats) {
	row := s.Table.Rows
	s.Table.SetNumRows(row + 1)

	rewards := stepRewards(set)
	s.Table.SetCellFloat("Epoch", row, float64(epoch))
	s.Table.SetCellFloat("Steps", row, float64(set.Steps()))
	s.Table.SetCellFloat("MeanReward", row, stat.Mean(rewards, nil))
	s.Table.SetCellFloat("StdReward", row, stat.StdDev(rewards, nil))
	s.Table.SetCellFloat("MeanEpisodeLength", row, set.MeanEpisodeLength())
	s.Table.SetCellFloat("PolicyObjective", row, ts.PolicyObjective)
	s.Table.SetCellFloat("ValueObjective", row, ts.ValueObjective)
	s.Table.SetCellFloat("EntropyObjective", row, ts.EntropyObjective)
	s.Table.SetCellFloat("TotalObjective", row, ts.TotalObjective)
	s.Table.SetCellFloat("AverageRatio", row, ts.AverageRatio)
	s.Table.SetCellFloat("AverageLogProbDiff", row, ts.AverageLogProbDiff)
	s.Table.SetCellFloat("AverageAdvantage", row, ts.AverageAdvantage)

	means := set.ComponentMeans()
	for _, term := range s.terms {
		s.Table.SetCellFloat(term, row, means[term])
	}

	if s.file != nil {
		if row == 0 {
			s.Table.WriteCSVHeaders(s.file, etable.Tab)
		}
		s.Table.WriteCSVRow(s.file, row, etable.Tab)
	}
}

// Close releases the CSV file. Logging continues in memory afterwards.
func (s *Statistics) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return errors.WithStack(err)
}

func stepRewards(set *env.RolloutSet) []float64 {
	rewards := make([]float64, 0, set.Steps())
	for _, tr := range set.Trajectories {
		rewards = append(rewards, tr.Rewards...)
	}
	return rewards
}
