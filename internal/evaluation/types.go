package evaluation

import "time"

// Facet is the cultural attribute a golden query targets.
type Facet string

const (
	FacetCraft    Facet = "craft"    // e.g., "blue pottery", "handloom saree"
	FacetRegion   Facet = "region"   // e.g., "crafts from kerala"
	FacetFestival Facet = "festival" // e.g., "diwali gifts"
)

// ValidFacets returns all valid facet values.
func ValidFacets() []Facet {
	return []Facet{FacetCraft, FacetRegion, FacetFestival}
}

// IsValid checks if the facet value is one of the defined constants.
func (f Facet) IsValid() bool {
	switch f {
	case FacetCraft, FacetRegion, FacetFestival:
		return true
	}
	return false
}

// GoldenQuery represents a labeled catalog query with expected outcomes.
type GoldenQuery struct {
	ID             string   `json:"id"`
	Query          string   `json:"query"`
	Facet          Facet    `json:"facet"`
	ExpectedLabels []string `json:"expected_labels"`
	ExpectedItems  []string `json:"expected_items,omitempty"`
	Difficulty     string   `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single query.
type EvalResult struct {
	QueryID         string
	Query           string
	Facet           Facet
	RecallAt10      float64
	MRRAt10         float64
	PrecisionAt10   float64
	ItemRecallAt10  float64
	ResultCount     int
	RetrievedLabels []string
	Latency         time.Duration
}

// EvalSummary holds aggregate metrics across all golden queries.
type EvalSummary struct {
	TotalQueries    int
	FailedQueries   int
	AvgRecallAt10   float64
	AvgMRRAt10      float64
	AvgPrecision    float64
	AvgLatency      time.Duration
	QueriesWithHits int // queries that returned at least 1 result
	ByFacet         map[Facet]*FacetSummary
}

// FacetSummary holds metrics grouped by facet.
type FacetSummary struct {
	Count         int
	AvgRecallAt10 float64
	AvgMRRAt10    float64
}
