// Package report parses the published benchmark and metadata documents that
// feed the report collectors.
package report

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// overheadSeparator splits a summary.txt into its sections.
var overheadSeparator = strings.Repeat("-", 58) + "\n"

// runAtLayout matches dates like "Wed Oct 22 05:21:03 UTC 2025".
const runAtLayout = "Mon Jan _2 15:04:05 MST 2006"

// corruptValueMarker shows up in some published summaries in place of a real
// measurement.
const corruptValueMarker = "8796093022208"

var (
	multiSpace     = regexp.MustCompile(`\s{2,}`)
	nonWordOrSpace = regexp.MustCompile(`[^\w\s]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// ErrInvalidSummary is returned when a summary.txt does not have the expected layout.
var ErrInvalidSummary = errors.New("invalid overhead summary")

// ParseOverheadSummary parses a benchmark-overhead summary.txt. An unparsable
// "Run at" date falls back to now.
func ParseOverheadSummary(text string, now time.Time) (model.OverheadReport, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	sections := strings.Split(text, overheadSeparator)
	if len(sections) < 3 {
		return model.OverheadReport{}, fmt.Errorf("%w: expected 3 sections, got %d", ErrInvalidSummary, len(sections))
	}

	runAt, err := parseRunAt(sections[1], now)
	if err != nil {
		return model.OverheadReport{}, err
	}

	lines := strings.Split(strings.TrimSpace(sections[2]), "\n")
	header, entitiesPart, ok := strings.Cut(lines[0], ":")
	if !ok || strings.TrimSpace(header) == "" {
		return model.OverheadReport{}, fmt.Errorf("%w: header line %q", ErrInvalidSummary, lines[0])
	}

	entities := splitColumns(entitiesPart)
	if len(entities) == 0 {
		return model.OverheadReport{}, fmt.Errorf("%w: no entities in header", ErrInvalidSummary)
	}

	metrics := make(map[string]map[string]float64, len(entities))
	for _, e := range entities {
		metrics[e] = make(map[string]float64)
	}

	for _, line := range lines[1:] {
		name, valuesPart, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || name == "Agent" {
			continue
		}

		metric := NormalizeMetricName(name)
		values := splitColumns(valuesPart)
		for i, entity := range entities {
			if i >= len(values) {
				break
			}
			if v, ok := parseOverheadValue(values[i]); ok {
				metrics[entity][metric] = round2(v)
			}
		}
	}

	return model.OverheadReport{
		RunAt:    runAt,
		Entities: entities,
		Metrics:  metrics,
	}, nil
}

func parseRunAt(section string, now time.Time) (time.Time, error) {
	for _, line := range strings.Split(section, "\n") {
		_, date, ok := strings.Cut(line, "Run at")
		if !ok {
			continue
		}
		t, err := time.Parse(runAtLayout, strings.TrimSpace(date))
		if err != nil {
			return now, nil
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: no \"Run at\" line", ErrInvalidSummary)
}

// NormalizeMetricName lowercases name, strips punctuation and joins words with
// underscores: "Startup time (ms)" becomes "startup_time_ms".
func NormalizeMetricName(name string) string {
	s := nonWordOrSpace.ReplaceAllString(strings.ToLower(name), "")
	s = whitespaceRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

func splitColumns(s string) []string {
	var out []string
	for _, part := range multiSpace.Split(strings.TrimSpace(s), -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseOverheadValue converts HH:MM:SS to seconds and plain numbers to float.
func parseOverheadValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, corruptValueMarker) {
		return 0, false
	}

	if parts := strings.Split(s, ":"); len(parts) == 3 {
		var total int
		for _, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				return 0, false
			}
			total = total*60 + n
		}
		return float64(total), true
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
