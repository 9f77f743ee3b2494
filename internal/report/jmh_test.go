package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

const sampleJMH = `[
  {
    "jmhVersion": "1.37",
    "benchmark": "io.prometheus.metrics.benchmarks.CounterBenchmark.codahaleIncNoLabels",
    "mode": "thrpt",
    "threads": 4,
    "forks": 5,
    "primaryMetric": {"score": 12345.678, "scoreError": 12.5, "scoreUnit": "ops/s"}
  },
  {
    "benchmark": "io.prometheus.metrics.benchmarks.HistogramBenchmark.prometheusClassic",
    "primaryMetric": {"score": 99.5, "scoreError": 0.25}
  },
  {
    "benchmark": "oddname",
    "threads": 1,
    "forks": 1,
    "primaryMetric": {"score": 1, "scoreError": 0, "scoreUnit": "us/op"}
  }
]`

func TestParseJMHResults(t *testing.T) {
	got, err := ParseJMHResults([]byte(sampleJMH))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, model.JMHBenchmark{
		ClassName:  "CounterBenchmark",
		MethodName: "codahaleIncNoLabels",
		Score:      12345.678,
		ScoreError: 12.5,
		ScoreUnit:  "ops/s",
		Threads:    4,
		Forks:      5,
	}, got[0])

	assert.Equal(t, "HistogramBenchmark", got[1].ClassName)
	assert.Equal(t, "ops/s", got[1].ScoreUnit, "missing unit defaults to ops/s")
	assert.Equal(t, 1, got[1].Threads)
	assert.Equal(t, 1, got[1].Forks)

	assert.Equal(t, "unknown", got[2].ClassName)
	assert.Equal(t, "unknown", got[2].MethodName)
	assert.Equal(t, "us/op", got[2].ScoreUnit)
}

func TestParseJMHResults_InvalidJSON(t *testing.T) {
	_, err := ParseJMHResults([]byte(`{"not": "an array"}`))
	require.Error(t, err)
}

func TestParseProcessor(t *testing.T) {
	tests := []struct {
		name   string
		readme string
		want   string
	}{
		{
			name:   "hardware line",
			readme: "# Benchmarks\n\n- **Hardware:** AMD EPYC 7763 64-Core Processor, 4 cores, 16 GB RAM\n- **OS:** Linux\n",
			want:   "AMD EPYC 7763 64-Core Processor",
		},
		{
			name:   "no commas",
			readme: "-   **Hardware:**   Apple M2\n",
			want:   "Apple M2",
		},
		{
			name:   "missing",
			readme: "# Benchmarks\nNothing here\n",
			want:   UnknownProcessor,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseProcessor(tc.readme))
		})
	}
}
