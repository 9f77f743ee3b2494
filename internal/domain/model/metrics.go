package model

// Metric names emitted by the collectors.
const (
	MetricRunDuration = "workflow.run.duration"
	MetricJobDuration = "workflow.job.duration"
	MetricIssuesOpen  = "repo.issues.open"
	MetricPRsOpen     = "repo.prs.open"
)

// Histogram bucket boundaries, in minutes.
var (
	RunDurationBuckets = []float64{5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 60, 75, 90, 120, 180}
	JobDurationBuckets = []float64{1, 2, 3, 5, 7, 10, 15, 20, 25, 30, 40, 50, 60, 90, 120}
)

// HistogramBuckets returns the boundaries for a histogram metric, or nil for
// the backend default.
func HistogramBuckets(name string) []float64 {
	switch name {
	case MetricRunDuration:
		return RunDurationBuckets
	case MetricJobDuration:
		return JobDurationBuckets
	}
	return nil
}
