package footprint

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

type staticSource []json.RawMessage

func (s staticSource) Records(context.Context) ([]json.RawMessage, error) { return s, nil }

func embeddedRecord(t *testing.T, rev pact.Revision, i int) map[string]any {
	t.Helper()
	raws, err := EmbeddedSource{Revision: rev}.Records(context.Background())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raws[i], &m))
	return m
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestLoad_RejectsSchemaViolations(t *testing.T) {
	v3, _ := pact.DefaultRegistry().Lookup(pact.RevisionV3)

	tests := []struct {
		name   string
		mutate func(m map[string]any)
	}{
		{"bad id", func(m map[string]any) { m["id"] = "not-a-uuid" }},
		{"bad status", func(m map[string]any) { m["status"] = "Archived" }},
		{"missing pcf", func(m map[string]any) { delete(m, "pcf") }},
		{"duplicate product ids", func(m map[string]any) { m["productIds"] = []string{"urn:a:1", "urn:a:1"} }},
		{"float decimal", func(m map[string]any) { m["pcf"].(map[string]any)["fossilGhgEmissions"] = 1.5 }},
		{"wrong revision", func(m map[string]any) { m["specVersion"] = "2.2.0" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := embeddedRecord(t, pact.RevisionV3, 0)
			tt.mutate(m)
			_, err := Load[ProductFootprint](context.Background(), v3, staticSource{mustJSON(t, m)})
			assert.Error(t, err)
		})
	}
}

func TestLoad_RejectsDuplicateIDsAcrossRecords(t *testing.T) {
	v2, _ := pact.DefaultRegistry().Lookup(pact.RevisionV2)
	rec := mustJSON(t, embeddedRecord(t, pact.RevisionV2, 0))
	_, err := Load[ProductFootprintV2](context.Background(), v2, staticSource{rec, rec})
	assert.ErrorContains(t, err, "duplicate")
}

func TestSplitDocument_Shapes(t *testing.T) {
	list, err := SplitDocument([]byte(`[{"id":"a"},{"id":"b"}]`), FormatJSON)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = SplitDocument([]byte(`{"data":[{"id":"a"}]}`), FormatJSON)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	yamlDoc := "data:\n  - id: a\n    productIds: [\"urn:x:1\"]\n  - id: b\n"
	list, err = SplitDocument([]byte(yamlDoc), FormatYAML)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.JSONEq(t, `{"id":"a","productIds":["urn:x:1"]}`, string(list[0]))

	_, err = SplitDocument([]byte(`{"data":`), FormatJSON)
	assert.Error(t, err)
}

func TestFileSource_YAMLSeed(t *testing.T) {
	rec := embeddedRecord(t, pact.RevisionV3, 1)
	asJSON := mustJSON(t, []any{rec})

	// JSON is valid YAML; write it under a .yaml name to exercise the YAML path.
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, asJSON, 0o600))

	src, err := OpenSource(context.Background(), "file://"+path, pact.RevisionV3, SourceOptions{})
	require.NoError(t, err)

	v3, _ := pact.DefaultRegistry().Lookup(pact.RevisionV3)
	store, err := Load[ProductFootprint](context.Background(), v3, src)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())
	assert.Equal(t, "Deprecated", store.All()[0].Status)
}

func TestOpenSource_Schemes(t *testing.T) {
	ctx := context.Background()

	src, err := OpenSource(ctx, "", pact.RevisionV2, SourceOptions{})
	require.NoError(t, err)
	assert.IsType(t, EmbeddedSource{}, src)

	src, err = OpenSource(ctx, "/tmp/seed.json", pact.RevisionV2, SourceOptions{})
	require.NoError(t, err)
	assert.Equal(t, FileSource{Path: "/tmp/seed.json"}, src)

	_, err = OpenSource(ctx, "ftp://host/seed.json", pact.RevisionV2, SourceOptions{})
	assert.Error(t, err)

	assert.Equal(t, FormatYAML, FormatOf("a/b/seed.YML"))
	assert.Equal(t, FormatJSON, FormatOf("seed"))
}
