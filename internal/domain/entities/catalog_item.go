package entities

import "strings"

// CatalogItem is a product listed by an artisan. Items are owned by the
// catalog index; the recommendation core only holds references and
// short-lived copies.
type CatalogItem struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       float64          `json:"price"`
	ArtisanName string           `json:"artisan_name,omitempty"`
	ImageURL    string           `json:"image_url,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Cultural    *CulturalContext `json:"cultural_context,omitempty"`
	Vector      []float32        `json:"-"`
}

// Text returns the text used for embedding and cultural analysis.
func (i *CatalogItem) Text() string {
	if i == nil {
		return ""
	}
	parts := []string{strings.TrimSpace(i.Title), strings.TrimSpace(i.Description)}
	if len(i.Tags) > 0 {
		parts = append(parts, strings.Join(i.Tags, " "))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// ScoredItem is a catalog item returned by the search layer with its
// retrieval score. VectorScore is set only when the item was matched by
// nearest-neighbour search; keyword hits and scrolled items leave it nil.
type ScoredItem struct {
	Item        *CatalogItem `json:"item"`
	Score       float64      `json:"score"`
	VectorScore *float64     `json:"vector_score,omitempty"`
}

// WithVectorScore returns a copy of s whose vector similarity is v.
func (s ScoredItem) WithVectorScore(v float64) ScoredItem {
	s.VectorScore = &v
	return s
}

// PriceRange filters items by price. Zero bounds are open.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether price lies within the range.
func (r *PriceRange) Contains(price float64) bool {
	if r == nil {
		return true
	}
	if r.Min > 0 && price < r.Min {
		return false
	}
	if r.Max > 0 && price > r.Max {
		return false
	}
	return true
}
