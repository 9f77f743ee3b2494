package report

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// instrumentationEntry is one library in docs/instrumentation-list.yaml.
// Older documents spell the version block "target_version".
type instrumentationEntry struct {
	Description    string          `yaml:"description"`
	TargetVersions *targetVersions `yaml:"target_versions"`
	TargetVersion  *targetVersions `yaml:"target_version"`
	Telemetry      yaml.Node       `yaml:"telemetry"`
}

type targetVersions struct {
	Javaagent yaml.Node `yaml:"javaagent"`
	Library   yaml.Node `yaml:"library"`
}

type instrumentationList struct {
	Libraries yaml.Node              `yaml:"libraries"`
	Internal  []instrumentationEntry `yaml:"internal"`
	Custom    []instrumentationEntry `yaml:"custom"`
}

// ParseInstrumentationList counts the libraries of an instrumentation list.
// "libraries" may be a flat list or a map of category to list; "internal" and
// "custom" lists are counted too. Missing keys count as zero.
func ParseInstrumentationList(data []byte) (model.InstrumentationSummary, error) {
	var doc instrumentationList
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.InstrumentationSummary{}, fmt.Errorf("decode instrumentation list: %w", err)
	}

	entries, err := libraryEntries(&doc.Libraries)
	if err != nil {
		return model.InstrumentationSummary{}, err
	}
	entries = append(entries, doc.Internal...)
	entries = append(entries, doc.Custom...)

	var s model.InstrumentationSummary
	for _, e := range entries {
		s.TotalLibraries++
		if e.Description != "" {
			s.WithDescription++
		}
		tv := e.TargetVersions
		if tv == nil {
			tv = e.TargetVersion
		}
		if tv != nil && truthy(&tv.Javaagent) {
			s.WithJavaagentVersion++
		}
		if tv != nil && truthy(&tv.Library) {
			s.WithLibraryVersion++
		}
		if present(&e.Telemetry) {
			s.WithTelemetry++
		}
	}

	return s, nil
}

func libraryEntries(node *yaml.Node) ([]instrumentationEntry, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		var list []instrumentationEntry
		if err := node.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode libraries list: %w", err)
		}
		return list, nil
	case yaml.MappingNode:
		var categories map[string][]instrumentationEntry
		if err := node.Decode(&categories); err != nil {
			return nil, fmt.Errorf("decode libraries categories: %w", err)
		}
		var all []instrumentationEntry
		for _, list := range categories {
			all = append(all, list...)
		}
		return all, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("decode instrumentation list: unexpected libraries node at line %d", node.Line)
}

// truthy reports whether a version node holds a non-empty value.
func truthy(n *yaml.Node) bool {
	switch n.Kind {
	case 0:
		return false
	case yaml.ScalarNode:
		return n.Tag != "!!null" && n.Value != "" && n.Value != "false"
	case yaml.SequenceNode, yaml.MappingNode:
		return len(n.Content) > 0
	}
	return true
}

// present reports whether a telemetry node was given and is not null or false.
// An empty mapping still counts.
func present(n *yaml.Node) bool {
	switch n.Kind {
	case 0:
		return false
	case yaml.ScalarNode:
		return n.Tag != "!!null" && n.Value != "false" && n.Value != ""
	}
	return true
}
