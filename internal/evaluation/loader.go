package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

// LoadGoldenQueries reads and parses a golden query set from a JSON file.
func LoadGoldenQueries(path string) ([]GoldenQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden queries file: %w", err)
	}

	var queries []GoldenQuery
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("failed to parse golden queries: %w", err)
	}

	return queries, nil
}

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

// ValidateGoldenQueries checks that all golden queries have required fields
// and that every expected label belongs to the taxonomy of its facet.
func ValidateGoldenQueries(queries []GoldenQuery) error {
	seen := make(map[string]struct{}, len(queries))

	for i, q := range queries {
		if q.ID == "" {
			return fmt.Errorf("query at index %d: missing id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("query at index %d: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}

		if strings.TrimSpace(q.Query) == "" {
			return fmt.Errorf("query %q: missing query text", q.ID)
		}
		if !q.Facet.IsValid() {
			return fmt.Errorf("query %q: invalid facet %q", q.ID, q.Facet)
		}
		if !validDifficulties[q.Difficulty] {
			return fmt.Errorf("query %q: invalid difficulty %q (must be easy/medium/hard)", q.ID, q.Difficulty)
		}
		if len(q.ExpectedLabels) == 0 {
			return fmt.Errorf("query %q: no expected labels", q.ID)
		}
		for _, label := range q.ExpectedLabels {
			if !knownLabel(q.Facet, label) {
				return fmt.Errorf("query %q: unknown %s label %q", q.ID, q.Facet, label)
			}
		}
	}

	return nil
}

func knownLabel(facet Facet, label string) bool {
	switch facet {
	case FacetCraft:
		return entities.ParseCraftType(label) != entities.CraftUnknown
	case FacetRegion:
		return entities.ParseRegion(label) != entities.RegionUnknown
	case FacetFestival:
		_, ok := entities.ParseFestival(label)
		return ok
	}
	return false
}
