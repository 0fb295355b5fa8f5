package models

import "fmt"

// RunConfig is one concrete point of a pipeline matrix: a benchmark, a
// provider/model pair and the sweep parameters for this point.
type RunConfig struct {
	BenchmarkID string `json:"benchmark_id" yaml:"benchmark"`
	Provider    string `json:"provider" yaml:"provider"`
	Model       string `json:"model" yaml:"model"`
	Params      Params `json:"params" yaml:"params"`
}

func (rc RunConfig) String() string {
	return fmt.Sprintf("%s/%s/%s %s", rc.BenchmarkID, rc.Provider, rc.Model, rc.Params)
}
