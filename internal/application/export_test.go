package application

import "time"

func (c *WorkflowCollector) SetClock(now func() time.Time) { c.now = now }

func (a *BuildAnalyzer) SetClock(now func() time.Time) { a.now = now }

func (s *BenchmarkService) SetClock(now func() time.Time) { s.now = now }
