package model

import "time"

// OverheadReport is a parsed benchmark-overhead summary.txt.
type OverheadReport struct {
	RunAt time.Time
	// Entities in column order, e.g. "none", "latest", "snapshot".
	Entities []string
	// Metrics maps entity -> normalized metric name -> value.
	Metrics map[string]map[string]float64
}

// MetricCount returns the number of entity/metric values in the report.
func (r OverheadReport) MetricCount() int {
	n := 0
	for _, m := range r.Metrics {
		n += len(m)
	}
	return n
}

// JMHBenchmark is one entry of a JMH results.json file.
type JMHBenchmark struct {
	ClassName  string
	MethodName string
	Score      float64
	ScoreError float64
	ScoreUnit  string
	Threads    int
	Forks      int
}

// InstrumentationSummary counts documented instrumentation libraries.
type InstrumentationSummary struct {
	TotalLibraries       int
	WithDescription      int
	WithJavaagentVersion int
	WithLibraryVersion   int
	WithTelemetry        int
}
