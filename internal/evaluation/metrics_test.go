package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const floatTolerance = 1e-9

func TestRecallAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"all relevant in top k", []string{"pottery", "textiles"}, []string{"textiles", "pottery", "jewelry"}, 10, 1.0},
		{"some relevant missing", []string{"pottery", "textiles", "woodwork", "painting"}, []string{"pottery", "textiles", "jewelry"}, 10, 0.5},
		{"empty results", []string{"pottery"}, nil, 10, 0.0},
		{"no relevant labels", nil, []string{"pottery"}, 10, 0.0},
		{"k cuts off a hit", []string{"pottery", "textiles", "woodwork"}, []string{"pottery", "textiles", "jewelry", "sculpture", "woodwork"}, 3, 2.0 / 3.0},
		{"retrieved shorter than k", []string{"kerala", "odisha"}, []string{"kerala"}, 10, 0.5},
		{"duplicates count once", []string{"diwali"}, []string{"diwali", "diwali", "diwali"}, 10, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RecallAtK(tt.relevant, tt.retrieved, tt.k), floatTolerance)
		})
	}
}

func TestMRRAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"first result relevant", []string{"pottery"}, []string{"pottery", "jewelry"}, 10, 1.0},
		{"third result relevant", []string{"pottery"}, []string{"jewelry", "textiles", "pottery"}, 10, 1.0 / 3.0},
		{"relevant beyond k", []string{"pottery"}, []string{"jewelry", "textiles", "pottery"}, 2, 0.0},
		{"empty relevant", nil, []string{"pottery"}, 10, 0.0},
		{"empty retrieved", []string{"pottery"}, nil, 10, 0.0},
		{"first of several relevant wins", []string{"kerala", "odisha"}, []string{"gujarat", "odisha", "kerala"}, 10, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MRRAtK(tt.relevant, tt.retrieved, tt.k), floatTolerance)
		})
	}
}

func TestPrecisionAtK(t *testing.T) {
	assert.InDelta(t, 0.5, PrecisionAtK([]string{"pottery"}, []string{"pottery", "jewelry", "pottery", "textiles"}, 10), floatTolerance)
	assert.InDelta(t, 1.0, PrecisionAtK([]string{"pottery"}, []string{"pottery", "jewelry"}, 1), floatTolerance)
	assert.Zero(t, PrecisionAtK([]string{"pottery"}, nil, 10))
	assert.Zero(t, PrecisionAtK(nil, []string{"pottery"}, 10))
	assert.Zero(t, PrecisionAtK([]string{"pottery"}, []string{"pottery"}, 0))
}
