package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

// seedItem is one catalog entry in the seed file. Cultural fields are
// optional; items without them are analysed at index time.
type seedItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	ArtisanName string   `json:"artisan_name"`
	ImageURL    string   `json:"image_url"`
	Tags        []string `json:"tags"`
	CraftType   string   `json:"craft_type"`
	Region      string   `json:"region"`
	Materials   []string `json:"materials"`
	Festivals   []string `json:"festivals"`
}

// loadCatalogSeed decodes a JSON array of catalog items. Items with
// duplicate ids keep the last entry.
func loadCatalogSeed(r io.Reader, now time.Time) ([]*entities.CatalogItem, error) {
	var raw []seedItem
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode catalog seed: %w", err)
	}

	byID := make(map[string]int, len(raw))
	items := make([]*entities.CatalogItem, 0, len(raw))
	for i, s := range raw {
		id := strings.TrimSpace(s.ID)
		if id == "" || strings.TrimSpace(s.Title) == "" {
			return nil, fmt.Errorf("seed entry %d: id and title are required", i)
		}
		item := &entities.CatalogItem{
			ID:          id,
			Title:       strings.TrimSpace(s.Title),
			Description: strings.TrimSpace(s.Description),
			Price:       s.Price,
			ArtisanName: s.ArtisanName,
			ImageURL:    s.ImageURL,
			Tags:        s.Tags,
		}
		if s.CraftType != "" && s.Region != "" {
			cc := entities.NewCulturalContext(
				entities.ParseCraftType(s.CraftType),
				entities.ParseRegion(s.Region),
				entities.SignificanceUnknown,
				s.Materials, nil,
				entities.ParseFestivals(s.Festivals),
				[]string{"curated"},
				1.0,
				now,
			)
			item.Cultural = &cc
		}
		if pos, ok := byID[id]; ok {
			items[pos] = item
			continue
		}
		byID[id] = len(items)
		items = append(items, item)
	}
	return items, nil
}
