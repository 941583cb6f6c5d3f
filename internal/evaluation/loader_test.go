package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGoldenQueries_ValidFile(t *testing.T) {
	content := `[
		{"id": "q1", "query": "blue pottery vase", "facet": "craft", "expected_labels": ["pottery"], "difficulty": "easy"},
		{"id": "q2", "query": "diwali gifts", "facet": "festival", "expected_labels": ["diwali"], "expected_items": ["diya-01"], "difficulty": "medium"}
	]`
	path := writeTempFile(t, content)

	queries, err := LoadGoldenQueries(path)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Equal(t, "q1", queries[0].ID)
	assert.Equal(t, FacetCraft, queries[0].Facet)
	assert.Equal(t, []string{"pottery"}, queries[0].ExpectedLabels)
	assert.Equal(t, []string{"diya-01"}, queries[1].ExpectedItems)
	assert.NoError(t, ValidateGoldenQueries(queries))
}

func TestLoadGoldenQueries_Errors(t *testing.T) {
	_, err := LoadGoldenQueries("/nonexistent/path.json")
	assert.Error(t, err)

	_, err = LoadGoldenQueries(writeTempFile(t, `not valid json`))
	assert.Error(t, err)

	queries, err := LoadGoldenQueries(writeTempFile(t, `[]`))
	require.NoError(t, err)
	assert.Empty(t, queries)
}

func TestFacet_IsValid(t *testing.T) {
	for _, f := range ValidFacets() {
		assert.True(t, f.IsValid(), f)
	}
	assert.False(t, Facet("material").IsValid())
	assert.False(t, Facet("").IsValid())
}

func TestValidateGoldenQueries_Rejects(t *testing.T) {
	valid := GoldenQuery{ID: "q1", Query: "madhubani painting", Facet: FacetCraft, ExpectedLabels: []string{"painting"}, Difficulty: "easy"}

	tests := []struct {
		name   string
		mutate func(q *GoldenQuery)
	}{
		{"missing id", func(q *GoldenQuery) { q.ID = "" }},
		{"blank query", func(q *GoldenQuery) { q.Query = "  " }},
		{"invalid facet", func(q *GoldenQuery) { q.Facet = "colour" }},
		{"invalid difficulty", func(q *GoldenQuery) { q.Difficulty = "impossible" }},
		{"no labels", func(q *GoldenQuery) { q.ExpectedLabels = nil }},
		{"label outside taxonomy", func(q *GoldenQuery) { q.ExpectedLabels = []string{"origami"} }},
		{"label from another facet", func(q *GoldenQuery) { q.ExpectedLabels = []string{"kerala"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			tt.mutate(&q)
			assert.Error(t, ValidateGoldenQueries([]GoldenQuery{q}))
		})
	}

	assert.Error(t, ValidateGoldenQueries([]GoldenQuery{valid, valid}), "duplicate ids")
	assert.NoError(t, ValidateGoldenQueries([]GoldenQuery{valid}))
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "golden.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
