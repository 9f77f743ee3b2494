package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

func TestParseInstrumentationList_FlatList(t *testing.T) {
	doc := `
libraries:
  - name: Library A
    description: This is a description.
    target_version:
      javaagent: 1.0.0
      library: 2.0.0
    telemetry: true
  - name: Library B
    target_version:
      javaagent: 1.1.0
    telemetry: false
  - name: Library C
    description: Another description.
    target_version:
      library: 2.1.0
  - name: Library D
  - name: Library E
    description: Yet another description.
    telemetry: {}
`
	got, err := ParseInstrumentationList([]byte(doc))

	require.NoError(t, err)
	assert.Equal(t, model.InstrumentationSummary{
		TotalLibraries:       5,
		WithDescription:      3,
		WithJavaagentVersion: 2,
		WithLibraryVersion:   2,
		WithTelemetry:        2,
	}, got)
}

func TestParseInstrumentationList_CategoriesWithInternalAndCustom(t *testing.T) {
	doc := `
libraries:
  akka:
    - name: akka-actor-2.3
      description: Akka actors
      target_versions:
        javaagent:
          - com.typesafe.akka:akka-actor_2.11:[2.3,)
      telemetry:
        - when: default
  apache:
    - name: apache-httpclient-4.3
      target_versions:
        library:
          - org.apache.httpcomponents:httpclient:[4.3,4.+)
internal:
  - name: internal-class-loader
    description: Class loader support
custom:
  - name: opentelemetry-extension-annotations
    target_versions:
      javaagent: []
`
	got, err := ParseInstrumentationList([]byte(doc))

	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalLibraries)
	assert.Equal(t, 2, got.WithDescription)
	assert.Equal(t, 1, got.WithJavaagentVersion, "empty version list does not count")
	assert.Equal(t, 1, got.WithLibraryVersion)
	assert.Equal(t, 1, got.WithTelemetry)
}

func TestParseInstrumentationList_Empty(t *testing.T) {
	for _, doc := range []string{"libraries: []", "other_key: value", "libraries:"} {
		t.Run(doc, func(t *testing.T) {
			got, err := ParseInstrumentationList([]byte(doc))
			require.NoError(t, err)
			assert.Equal(t, model.InstrumentationSummary{}, got)
		})
	}
}

func TestParseInstrumentationList_InvalidYAML(t *testing.T) {
	_, err := ParseInstrumentationList([]byte("invalid: - yaml"))
	require.Error(t, err)
}

func TestParseInstrumentationList_LibrariesScalar(t *testing.T) {
	_, err := ParseInstrumentationList([]byte("libraries: 42"))
	require.Error(t, err)
}
