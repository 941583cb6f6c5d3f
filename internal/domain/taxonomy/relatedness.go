package taxonomy

import "github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"

type craftPair struct{ a, b entities.CraftType }

type regionPair struct{ a, b entities.Region }

// craftRelations lists curated related craft pairs with their similarity.
// Lookup is symmetric.
var craftRelations = map[craftPair]float64{
	{entities.CraftPottery, entities.CraftSculpture}:      0.6,
	{entities.CraftPottery, entities.CraftMetalcraft}:     0.4,
	{entities.CraftSculpture, entities.CraftMetalcraft}:   0.5,
	{entities.CraftSculpture, entities.CraftStoneCarving}: 0.6,
	{entities.CraftSculpture, entities.CraftWoodwork}:     0.5,
	{entities.CraftWoodwork, entities.CraftBambooCraft}:   0.5,
	{entities.CraftWoodwork, entities.CraftStoneCarving}:  0.4,
	{entities.CraftJewelry, entities.CraftMetalcraft}:     0.6,
	{entities.CraftJewelry, entities.CraftGlassWork}:      0.4,
	{entities.CraftTextiles, entities.CraftPainting}:      0.4,
	{entities.CraftTextiles, entities.CraftLeatherWork}:   0.4,
	{entities.CraftPainting, entities.CraftPaperCraft}:    0.5,
	{entities.CraftPaperCraft, entities.CraftBambooCraft}: 0.4,
}

// neighbouringRegions lists regions that share borders or craft traditions.
var neighbouringRegions = map[regionPair]float64{
	{entities.RegionRajasthan, entities.RegionGujarat}:          0.6,
	{entities.RegionRajasthan, entities.RegionPunjab}:           0.5,
	{entities.RegionRajasthan, entities.RegionMadhyaPradesh}:    0.5,
	{entities.RegionRajasthan, entities.RegionUttarPradesh}:     0.4,
	{entities.RegionGujarat, entities.RegionMaharashtra}:        0.5,
	{entities.RegionGujarat, entities.RegionMadhyaPradesh}:      0.4,
	{entities.RegionWestBengal, entities.RegionOdisha}:          0.6,
	{entities.RegionWestBengal, entities.RegionBihar}:           0.5,
	{entities.RegionWestBengal, entities.RegionAssam}:           0.5,
	{entities.RegionOdisha, entities.RegionAndhraPradesh}:       0.4,
	{entities.RegionKerala, entities.RegionTamilNadu}:           0.6,
	{entities.RegionKerala, entities.RegionKarnataka}:           0.5,
	{entities.RegionTamilNadu, entities.RegionKarnataka}:        0.5,
	{entities.RegionTamilNadu, entities.RegionAndhraPradesh}:    0.5,
	{entities.RegionKarnataka, entities.RegionAndhraPradesh}:    0.4,
	{entities.RegionKarnataka, entities.RegionMaharashtra}:      0.4,
	{entities.RegionUttarPradesh, entities.RegionBihar}:         0.6,
	{entities.RegionUttarPradesh, entities.RegionMadhyaPradesh}: 0.5,
	{entities.RegionPunjab, entities.RegionHimachalPradesh}:     0.6,
	{entities.RegionPunjab, entities.RegionKashmir}:             0.4,
	{entities.RegionHimachalPradesh, entities.RegionKashmir}:    0.5,
	{entities.RegionMaharashtra, entities.RegionMadhyaPradesh}:  0.4,
}

// CraftSimilarity returns 1 for identical known crafts, the curated
// relatedness for related crafts, and 0 otherwise. Unknown never matches.
func CraftSimilarity(a, b entities.CraftType) float64 {
	if a == entities.CraftUnknown || b == entities.CraftUnknown {
		return 0
	}
	if a == b {
		return 1
	}
	if s, ok := craftRelations[craftPair{a, b}]; ok {
		return s
	}
	return craftRelations[craftPair{b, a}]
}

// RegionSimilarity returns 1 for identical known regions, the neighbour
// score for neighbouring regions, and 0 otherwise.
func RegionSimilarity(a, b entities.Region) float64 {
	if a == entities.RegionUnknown || b == entities.RegionUnknown {
		return 0
	}
	if a == b {
		return 1
	}
	return NeighbourScore(a, b)
}

// NeighbourScore returns the relatedness of two distinct regions, or 0.
func NeighbourScore(a, b entities.Region) float64 {
	if s, ok := neighbouringRegions[regionPair{a, b}]; ok {
		return s
	}
	return neighbouringRegions[regionPair{b, a}]
}

// AreNeighbours reports whether two distinct regions are related.
func AreNeighbours(a, b entities.Region) bool {
	return a != b && NeighbourScore(a, b) > 0
}
