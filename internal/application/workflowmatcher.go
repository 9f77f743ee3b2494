package application

import (
	"strings"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// WorkflowMatcher picks the build workflows of a repository by display name
// or definition file name.
type WorkflowMatcher struct {
	Names []string
	Files []string
}

// DefaultWorkflowMatcher matches the "Build" and "Build pull request" workflows.
func DefaultWorkflowMatcher() WorkflowMatcher {
	return WorkflowMatcher{
		Names: []string{"Build", "Build pull request"},
		Files: []string{"build.yml", "build-pull-request.yml"},
	}
}

// IsBuild reports whether wf is a build workflow: its name equals one of
// Names or its path contains one of Files.
func (m WorkflowMatcher) IsBuild(wf model.Workflow) bool {
	for _, n := range m.Names {
		if wf.Name == n {
			return true
		}
	}
	for _, f := range m.Files {
		if f != "" && strings.Contains(wf.Path, f) {
			return true
		}
	}
	return false
}

// Match returns the build workflows among wfs in their original order.
func (m WorkflowMatcher) Match(wfs []model.Workflow) []model.Workflow {
	var out []model.Workflow
	for _, wf := range wfs {
		if m.IsBuild(wf) {
			out = append(out, wf)
		}
	}
	return out
}
