package model

import "strings"

// RepoCounts holds open issue and pull request counts for a repository.
type RepoCounts struct {
	FullName   string
	OpenIssues int // Excludes pull requests.
	OpenPRs    int
}

// ShortName returns the repository name without its owner, e.g.
// "opentelemetry-java" for "open-telemetry/opentelemetry-java".
func ShortName(fullName string) string {
	if i := strings.LastIndex(fullName, "/"); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}
