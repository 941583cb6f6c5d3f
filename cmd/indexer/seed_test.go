package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

func TestLoadCatalogSeed(t *testing.T) {
	raw := `[
		{"id": "p1", "title": "Blue pottery vase", "price": 1800, "craft_type": "pottery", "region": "rajasthan", "festivals": ["diwali", "thanksgiving"]},
		{"id": "t1", "title": "Kasavu saree", "description": "Handloom cotton with gold border", "price": 4200},
		{"id": "p1", "title": "Blue pottery vase (large)", "price": 2400}
	]`

	items, err := loadCatalogSeed(strings.NewReader(raw), time.Now())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Blue pottery vase (large)", items[0].Title)
	assert.Nil(t, items[0].Cultural)
	assert.Nil(t, items[1].Cultural)
}

func TestLoadCatalogSeed_CuratedContext(t *testing.T) {
	raw := `[{"id": "p1", "title": "Diya", "craft_type": "Pottery", "region": "West Bengal", "festivals": ["diwali", "thanksgiving"]}]`

	items, err := loadCatalogSeed(strings.NewReader(raw), time.Now())
	require.NoError(t, err)
	require.NotNil(t, items[0].Cultural)
	assert.Equal(t, entities.CraftPottery, items[0].Cultural.CraftType)
	assert.Equal(t, entities.RegionWestBengal, items[0].Cultural.Region)
	assert.Equal(t, []entities.Festival{entities.FestivalDiwali}, items[0].Cultural.FestivalRelevance)
}

func TestLoadCatalogSeed_Invalid(t *testing.T) {
	_, err := loadCatalogSeed(strings.NewReader(`[{"title": "no id"}]`), time.Now())
	assert.Error(t, err)

	_, err = loadCatalogSeed(strings.NewReader(`{`), time.Now())
	assert.Error(t, err)
}
