package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// UnknownProcessor labels benchmarks whose README has no hardware line.
const UnknownProcessor = "unknown"

var hardwareLine = regexp.MustCompile(`-\s*\*\*Hardware:\*\*\s*([^,\n]+)`)

type jmhResult struct {
	Benchmark     string `json:"benchmark"`
	Threads       *int   `json:"threads"`
	Forks         *int   `json:"forks"`
	PrimaryMetric struct {
		Score      float64 `json:"score"`
		ScoreError float64 `json:"scoreError"`
		ScoreUnit  string  `json:"scoreUnit"`
	} `json:"primaryMetric"`
}

// ParseJMHResults parses a JMH results.json array. Missing threads or forks
// default to 1 and a missing unit to "ops/s".
func ParseJMHResults(data []byte) ([]model.JMHBenchmark, error) {
	var results []jmhResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decode jmh results: %w", err)
	}

	out := make([]model.JMHBenchmark, 0, len(results))
	for _, r := range results {
		class, method := splitBenchmarkName(r.Benchmark)

		b := model.JMHBenchmark{
			ClassName:  class,
			MethodName: method,
			Score:      r.PrimaryMetric.Score,
			ScoreError: r.PrimaryMetric.ScoreError,
			ScoreUnit:  r.PrimaryMetric.ScoreUnit,
			Threads:    1,
			Forks:      1,
		}
		if b.ScoreUnit == "" {
			b.ScoreUnit = "ops/s"
		}
		if r.Threads != nil {
			b.Threads = *r.Threads
		}
		if r.Forks != nil {
			b.Forks = *r.Forks
		}
		out = append(out, b)
	}

	return out, nil
}

// splitBenchmarkName returns the last two dotted components of a fully
// qualified benchmark, e.g. ("CounterBenchmark", "codahaleIncNoLabels").
func splitBenchmarkName(path string) (class, method string) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}

// ParseProcessor extracts the CPU model from a "- **Hardware:** <cpu>, ..."
// README line.
func ParseProcessor(readme string) string {
	m := hardwareLine.FindStringSubmatch(readme)
	if m == nil {
		return UnknownProcessor
	}
	if p := strings.TrimSpace(m[1]); p != "" {
		return p
	}
	return UnknownProcessor
}
