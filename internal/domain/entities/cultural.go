package entities

import (
	"sort"
	"strings"
	"time"
)

// CraftType is the handicraft category of an item.
type CraftType string

const (
	CraftPottery      CraftType = "pottery"
	CraftTextiles     CraftType = "textiles"
	CraftJewelry      CraftType = "jewelry"
	CraftWoodwork     CraftType = "woodwork"
	CraftMetalcraft   CraftType = "metalcraft"
	CraftPainting     CraftType = "painting"
	CraftSculpture    CraftType = "sculpture"
	CraftLeatherWork  CraftType = "leather_work"
	CraftStoneCarving CraftType = "stone_carving"
	CraftGlassWork    CraftType = "glass_work"
	CraftPaperCraft   CraftType = "paper_craft"
	CraftBambooCraft  CraftType = "bamboo_craft"
	CraftUnknown      CraftType = "unknown"
)

// AllCraftTypes lists every known craft except CraftUnknown.
func AllCraftTypes() []CraftType {
	return []CraftType{
		CraftPottery, CraftTextiles, CraftJewelry, CraftWoodwork, CraftMetalcraft,
		CraftPainting, CraftSculpture, CraftLeatherWork, CraftStoneCarving,
		CraftGlassWork, CraftPaperCraft, CraftBambooCraft,
	}
}

// ParseCraftType converts s to a CraftType, returning CraftUnknown for
// anything outside the closed set.
func ParseCraftType(s string) CraftType {
	c := CraftType(normalizeEnum(s))
	for _, known := range AllCraftTypes() {
		if c == known {
			return c
		}
	}
	return CraftUnknown
}

// Region is an Indian region of origin.
type Region string

const (
	RegionRajasthan       Region = "rajasthan"
	RegionGujarat         Region = "gujarat"
	RegionWestBengal      Region = "west_bengal"
	RegionOdisha          Region = "odisha"
	RegionKerala          Region = "kerala"
	RegionTamilNadu       Region = "tamil_nadu"
	RegionKarnataka       Region = "karnataka"
	RegionAndhraPradesh   Region = "andhra_pradesh"
	RegionUttarPradesh    Region = "uttar_pradesh"
	RegionMadhyaPradesh   Region = "madhya_pradesh"
	RegionBihar           Region = "bihar"
	RegionPunjab          Region = "punjab"
	RegionKashmir         Region = "kashmir"
	RegionAssam           Region = "assam"
	RegionMaharashtra     Region = "maharashtra"
	RegionHimachalPradesh Region = "himachal_pradesh"
	RegionUnknown         Region = "unknown"
)

// AllRegions lists every known region except RegionUnknown.
func AllRegions() []Region {
	return []Region{
		RegionRajasthan, RegionGujarat, RegionWestBengal, RegionOdisha, RegionKerala,
		RegionTamilNadu, RegionKarnataka, RegionAndhraPradesh, RegionUttarPradesh,
		RegionMadhyaPradesh, RegionBihar, RegionPunjab, RegionKashmir, RegionAssam,
		RegionMaharashtra, RegionHimachalPradesh,
	}
}

// ParseRegion converts s to a Region, returning RegionUnknown for anything
// outside the closed set.
func ParseRegion(s string) Region {
	r := Region(normalizeEnum(s))
	for _, known := range AllRegions() {
		if r == known {
			return r
		}
	}
	return RegionUnknown
}

// CulturalSignificance is the use-context of an item.
type CulturalSignificance string

const (
	SignificanceCeremonial      CulturalSignificance = "ceremonial"
	SignificanceFestivalItem    CulturalSignificance = "festival_item"
	SignificanceDailyUse        CulturalSignificance = "daily_use"
	SignificanceDecorative      CulturalSignificance = "decorative"
	SignificanceReligious       CulturalSignificance = "religious"
	SignificanceWeddingItem     CulturalSignificance = "wedding_item"
	SignificanceGiftItem        CulturalSignificance = "gift_item"
	SignificanceTouristSouvenir CulturalSignificance = "tourist_souvenir"
	SignificanceHeritagePiece   CulturalSignificance = "heritage_piece"
	SignificanceContemporary    CulturalSignificance = "contemporary"
	SignificanceUnknown         CulturalSignificance = "unknown"
)

// AllSignificances lists every known significance except SignificanceUnknown.
func AllSignificances() []CulturalSignificance {
	return []CulturalSignificance{
		SignificanceCeremonial, SignificanceFestivalItem, SignificanceDailyUse,
		SignificanceDecorative, SignificanceReligious, SignificanceWeddingItem,
		SignificanceGiftItem, SignificanceTouristSouvenir, SignificanceHeritagePiece,
		SignificanceContemporary,
	}
}

// ParseCulturalSignificance converts s, returning SignificanceUnknown for
// anything outside the closed set.
func ParseCulturalSignificance(s string) CulturalSignificance {
	c := CulturalSignificance(normalizeEnum(s))
	for _, known := range AllSignificances() {
		if c == known {
			return c
		}
	}
	return SignificanceUnknown
}

// IsSeasonalGift reports whether items of this significance get the
// seasonal significance bonus.
func (c CulturalSignificance) IsSeasonalGift() bool {
	switch c {
	case SignificanceFestivalItem, SignificanceGiftItem, SignificanceDecorative:
		return true
	}
	return false
}

// Festival is an Indian festival or festive season.
type Festival string

const (
	FestivalDiwali          Festival = "diwali"
	FestivalHoli            Festival = "holi"
	FestivalDussehra        Festival = "dussehra"
	FestivalNavratri        Festival = "navratri"
	FestivalDurgaPuja       Festival = "durga_puja"
	FestivalGaneshChaturthi Festival = "ganesh_chaturthi"
	FestivalKarvaChauth     Festival = "karva_chauth"
	FestivalRakshaBandhan   Festival = "raksha_bandhan"
	FestivalEid             Festival = "eid"
	FestivalChristmas       Festival = "christmas"
	FestivalPongal          Festival = "pongal"
	FestivalOnam            Festival = "onam"
	FestivalBaisakhi        Festival = "baisakhi"
	FestivalDhanteras       Festival = "dhanteras"
	FestivalWeddingSeason   Festival = "wedding_season"
)

// AllFestivals lists every known festival.
func AllFestivals() []Festival {
	return []Festival{
		FestivalDiwali, FestivalHoli, FestivalDussehra, FestivalNavratri,
		FestivalDurgaPuja, FestivalGaneshChaturthi, FestivalKarvaChauth,
		FestivalRakshaBandhan, FestivalEid, FestivalChristmas, FestivalPongal,
		FestivalOnam, FestivalBaisakhi, FestivalDhanteras, FestivalWeddingSeason,
	}
}

// ParseFestival converts s to a Festival. Festivals have no unknown member,
// so ok is false for unrecognised input and callers drop the value.
func ParseFestival(s string) (Festival, bool) {
	f := Festival(normalizeEnum(s))
	for _, known := range AllFestivals() {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// ParseFestivals converts a list, dropping unknown and duplicate values.
func ParseFestivals(values []string) []Festival {
	seen := make(map[Festival]struct{}, len(values))
	out := make([]Festival, 0, len(values))
	for _, v := range values {
		f, ok := ParseFestival(v)
		if !ok {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CulturalContext is the structured cultural identity of a catalog item.
// It is a value: analysis produces a new context, never an in-place update.
// Slices are normalised by NewCulturalContext and must not be mutated.
type CulturalContext struct {
	CraftType             CraftType            `json:"craft_type"`
	Materials             []string             `json:"materials"`
	CulturalSignificance  CulturalSignificance `json:"cultural_significance"`
	Region                Region               `json:"region"`
	TraditionalTechniques []string             `json:"traditional_techniques"`
	FestivalRelevance     []Festival           `json:"festival_relevance"`
	CulturalTags          []string             `json:"cultural_tags"`
	ConfidenceScore       float64              `json:"confidence_score"`
	AnalysisTimestamp     time.Time            `json:"analysis_timestamp"`
}

// NewCulturalContext builds a normalised context. Sets are lower-cased,
// trimmed, deduplicated and sorted; confidence is clamped to [0,1].
func NewCulturalContext(
	craft CraftType,
	region Region,
	significance CulturalSignificance,
	materials, techniques []string,
	festivals []Festival,
	tags []string,
	confidence float64,
	at time.Time,
) CulturalContext {
	fest := make([]string, len(festivals))
	for i, f := range festivals {
		fest[i] = string(f)
	}
	return CulturalContext{
		CraftType:             craft,
		Materials:             normalizeSet(materials),
		CulturalSignificance:  significance,
		Region:                region,
		TraditionalTechniques: normalizeSet(techniques),
		FestivalRelevance:     ParseFestivals(fest),
		CulturalTags:          cloneStrings(tags),
		ConfidenceScore:       clamp01(confidence),
		AnalysisTimestamp:     at,
	}
}

// UnknownCulturalContext returns the minimal context used when nothing
// could be inferred.
func UnknownCulturalContext(confidence float64, at time.Time) CulturalContext {
	return NewCulturalContext(CraftUnknown, RegionUnknown, SignificanceUnknown, nil, nil, nil, []string{"minimal_default"}, confidence, at)
}

// Clone returns a deep copy.
func (c CulturalContext) Clone() CulturalContext {
	out := c
	out.Materials = cloneStrings(c.Materials)
	out.TraditionalTechniques = cloneStrings(c.TraditionalTechniques)
	out.CulturalTags = cloneStrings(c.CulturalTags)
	out.FestivalRelevance = make([]Festival, len(c.FestivalRelevance))
	copy(out.FestivalRelevance, c.FestivalRelevance)
	return out
}

// HasFestival reports whether f is among the context's festivals.
func (c CulturalContext) HasFestival(f Festival) bool {
	for _, x := range c.FestivalRelevance {
		if x == f {
			return true
		}
	}
	return false
}

// FestivalStrings returns the festivals as plain strings.
func (c CulturalContext) FestivalStrings() []string {
	out := make([]string, len(c.FestivalRelevance))
	for i, f := range c.FestivalRelevance {
		out[i] = string(f)
	}
	return out
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
