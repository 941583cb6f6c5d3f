package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/taxonomy"
)

const culturalAnalysisSystemPrompt = `You classify Indian handicraft products. Reply with a single JSON object and nothing else.
Use only these values:
craft_type: pottery, textiles, jewelry, woodwork, metalcraft, painting, sculpture, leather_work, stone_carving, glass_work, paper_craft, bamboo_craft, unknown
region: rajasthan, gujarat, west_bengal, odisha, kerala, tamil_nadu, karnataka, andhra_pradesh, uttar_pradesh, madhya_pradesh, bihar, punjab, kashmir, assam, maharashtra, himachal_pradesh, unknown
cultural_significance: ceremonial, festival_item, daily_use, decorative, religious, wedding_item, gift_item, tourist_souvenir, heritage_piece, contemporary, unknown
festival_relevance: any of diwali, holi, dussehra, navratri, durga_puja, ganesh_chaturthi, karva_chauth, raksha_bandhan, eid, christmas, pongal, onam, baisakhi, dhanteras, wedding_season`

// culturalAnalysisReply is the JSON shape requested from the classifier.
type culturalAnalysisReply struct {
	CraftType             string   `json:"craft_type"`
	Materials             []string `json:"materials"`
	CulturalSignificance  string   `json:"cultural_significance"`
	Region                string   `json:"region"`
	TraditionalTechniques []string `json:"traditional_techniques"`
	FestivalRelevance     []string `json:"festival_relevance"`
	CulturalTags          []string `json:"cultural_tags"`
	ConfidenceScore       float64  `json:"confidence_score"`
	Reasoning             string   `json:"reasoning"`
}

func buildCulturalAnalysisPrompt(title, description string) string {
	return fmt.Sprintf(`Product title: %s
Product description: %s

Return JSON with keys craft_type, materials, cultural_significance, region, traditional_techniques, festival_relevance, cultural_tags, confidence_score (0-1) and reasoning.`,
		strings.TrimSpace(title), strings.TrimSpace(description))
}

// keywordMatch is the result of scanning text against every table.
type keywordMatch struct {
	craft               entities.CraftType
	craftMatches        int
	region              entities.Region
	regionMatches       int
	significance        entities.CulturalSignificance
	significanceMatches int
	festivals           []entities.Festival
	materials           []string
	techniques          []string
}

func (m keywordMatch) any() bool {
	return m.craftMatches > 0 || m.regionMatches > 0 || m.significanceMatches > 0 ||
		len(m.festivals) > 0 || len(m.materials) > 0 || len(m.techniques) > 0
}

// matchStrength maps a keyword hit count to [0,1]; three hits saturate.
func matchStrength(matches int) float64 {
	return minFloat(float64(matches)/3, 1)
}

func matchKeywords(text string) keywordMatch {
	normalized := normalizeForMatch(text)
	m := keywordMatch{
		craft:        entities.CraftUnknown,
		region:       entities.RegionUnknown,
		significance: entities.SignificanceUnknown,
	}

	m.craft, m.craftMatches = bestCategory(normalized, entities.AllCraftTypes(), taxonomy.CraftKeywords, entities.CraftUnknown)
	m.region, m.regionMatches = bestCategory(normalized, entities.AllRegions(), taxonomy.RegionKeywords, entities.RegionUnknown)
	m.significance, m.significanceMatches = bestCategory(normalized, entities.AllSignificances(), taxonomy.SignificanceKeywords, entities.SignificanceUnknown)

	for _, f := range entities.AllFestivals() {
		if countMatches(normalized, taxonomy.FestivalKeywords[f]) > 0 {
			m.festivals = append(m.festivals, f)
		}
	}
	for _, kw := range taxonomy.MaterialKeywords {
		if containsWord(normalized, kw) {
			m.materials = append(m.materials, kw)
		}
	}
	for _, kw := range taxonomy.TechniqueKeywords {
		if containsWord(normalized, kw) {
			m.techniques = append(m.techniques, kw)
		}
	}
	return m
}

// bestCategory picks the category with the highest match ratio (matches
// over keywords in the category). Ties go to the category with more raw
// matches, then to the earlier category in order.
func bestCategory[T ~string](text string, order []T, table map[T][]string, fallback T) (T, int) {
	best, bestMatches, bestRatio := fallback, 0, 0.0
	for _, category := range order {
		keywords := table[category]
		if len(keywords) == 0 {
			continue
		}
		n := countMatches(text, keywords)
		if n == 0 {
			continue
		}
		ratio := float64(n) / float64(len(keywords))
		if ratio > bestRatio || (ratio == bestRatio && n > bestMatches) {
			best, bestMatches, bestRatio = category, n, ratio
		}
	}
	return best, bestMatches
}

func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if containsWord(text, kw) {
			n++
		}
	}
	return n
}

// containsWord reports whether kw occurs in text starting at a word
// boundary, so "pot" matches "pots" but not "teapot".
func containsWord(text, kw string) bool {
	kw = normalizeForMatch(kw)
	if kw == "" {
		return false
	}
	return strings.Contains(text, kw)
}

// normalizeForMatch lower-cases text, replaces punctuation with spaces and
// pads it with a leading space.
func normalizeForMatch(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 1)
	b.WriteByte(' ')
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}
