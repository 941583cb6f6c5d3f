// Package taxonomy holds the static cultural vocabulary: keyword tables used
// by the fallback classifier, relatedness tables used by similarity scoring
// and the festival calendar.
package taxonomy

import "github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"

// CraftKeywords maps each craft to the words that indicate it.
var CraftKeywords = map[entities.CraftType][]string{
	entities.CraftPottery:      {"pottery", "clay", "ceramic", "terracotta", "earthenware", "pot", "kulhad", "matka", "glaze"},
	entities.CraftTextiles:     {"textile", "saree", "sari", "silk", "cotton", "weave", "woven", "fabric", "shawl", "dupatta", "handloom", "embroidery"},
	entities.CraftJewelry:      {"jewelry", "jewellery", "necklace", "earring", "bangle", "bracelet", "ring", "kundan", "jhumka", "anklet"},
	entities.CraftWoodwork:     {"wood", "wooden", "carved wood", "teak", "sheesham", "rosewood", "sandalwood", "lacquer"},
	entities.CraftMetalcraft:   {"brass", "copper", "bronze", "metal", "dhokra", "bidri", "silver", "iron", "bell metal"},
	entities.CraftPainting:     {"painting", "madhubani", "warli", "pattachitra", "tanjore", "miniature", "kalamkari", "canvas", "pichwai"},
	entities.CraftSculpture:    {"sculpture", "idol", "statue", "figurine", "murti", "bust"},
	entities.CraftLeatherWork:  {"leather", "mojari", "jutti", "kolhapuri", "hide"},
	entities.CraftStoneCarving: {"stone", "marble", "soapstone", "granite", "sandstone", "inlay", "pietra dura"},
	entities.CraftGlassWork:    {"glass", "bangles glass", "firozabad", "stained glass", "bead"},
	entities.CraftPaperCraft:   {"paper", "papier mache", "papier-mache", "sanjhi", "origami", "handmade paper"},
	entities.CraftBambooCraft:  {"bamboo", "cane", "rattan", "basket", "wicker"},
}

// RegionKeywords maps each region to the place names and craft traditions
// that indicate it.
var RegionKeywords = map[entities.Region][]string{
	entities.RegionRajasthan:       {"rajasthan", "rajasthani", "jaipur", "jodhpur", "udaipur", "bikaner", "blue pottery", "bandhani", "sanganer"},
	entities.RegionGujarat:         {"gujarat", "gujarati", "kutch", "ahmedabad", "patola", "rogan", "ajrakh"},
	entities.RegionWestBengal:      {"bengal", "bengali", "kolkata", "kantha", "baluchari", "bankura", "shantiniketan"},
	entities.RegionOdisha:          {"odisha", "orissa", "odia", "pattachitra", "sambalpuri", "cuttack", "pipli"},
	entities.RegionKerala:          {"kerala", "malayali", "kasavu", "aranmula", "kathakali", "coir"},
	entities.RegionTamilNadu:       {"tamil", "tamil nadu", "chennai", "kanchipuram", "tanjore", "thanjavur", "madurai", "chettinad"},
	entities.RegionKarnataka:       {"karnataka", "mysore", "bangalore", "channapatna", "bidri", "ilkal"},
	entities.RegionAndhraPradesh:   {"andhra", "telangana", "hyderabad", "kalamkari", "kondapalli", "pochampally", "nirmal"},
	entities.RegionUttarPradesh:    {"uttar pradesh", "lucknow", "varanasi", "banaras", "banarasi", "chikankari", "moradabad", "agra", "firozabad", "khurja"},
	entities.RegionMadhyaPradesh:   {"madhya pradesh", "chanderi", "maheshwari", "gond", "bhopal", "bastar"},
	entities.RegionBihar:           {"bihar", "madhubani", "mithila", "sikki", "bhagalpur", "tussar"},
	entities.RegionPunjab:          {"punjab", "punjabi", "phulkari", "amritsar", "jutti", "patiala"},
	entities.RegionKashmir:         {"kashmir", "kashmiri", "pashmina", "srinagar", "papier mache", "walnut wood", "sozni"},
	entities.RegionAssam:           {"assam", "assamese", "muga", "eri", "majuli", "gamosa"},
	entities.RegionMaharashtra:     {"maharashtra", "mumbai", "paithani", "warli", "kolhapur", "kolhapuri", "pune"},
	entities.RegionHimachalPradesh: {"himachal", "kullu", "chamba", "kangra", "shimla"},
}

// SignificanceKeywords maps each use-context to its indicating words.
var SignificanceKeywords = map[entities.CulturalSignificance][]string{
	entities.SignificanceCeremonial:      {"ceremony", "ceremonial", "ritual", "puja", "aarti", "havan"},
	entities.SignificanceFestivalItem:    {"festival", "festive", "diya", "rangoli", "lantern", "celebration"},
	entities.SignificanceDailyUse:        {"daily", "everyday", "kitchen", "utility", "cookware", "tableware", "storage"},
	entities.SignificanceDecorative:      {"decor", "decorative", "wall hanging", "ornament", "showpiece", "home decor", "vase"},
	entities.SignificanceReligious:       {"religious", "god", "goddess", "temple", "deity", "ganesha", "krishna", "lakshmi", "shiva", "buddha"},
	entities.SignificanceWeddingItem:     {"wedding", "bridal", "bride", "trousseau", "shaadi", "marriage"},
	entities.SignificanceGiftItem:        {"gift", "gifting", "present", "souvenir gift", "hamper"},
	entities.SignificanceTouristSouvenir: {"souvenir", "tourist", "keepsake", "memento", "magnet"},
	entities.SignificanceHeritagePiece:   {"heritage", "antique", "vintage", "heirloom", "traditional", "ancient", "royal"},
	entities.SignificanceContemporary:    {"contemporary", "modern", "fusion", "minimalist", "designer"},
}

// FestivalKeywords maps each festival to its indicating words.
var FestivalKeywords = map[entities.Festival][]string{
	entities.FestivalDiwali:          {"diwali", "deepavali", "diya", "lakshmi", "rangoli", "lantern"},
	entities.FestivalHoli:            {"holi", "gulal", "colours", "colors", "pichkari"},
	entities.FestivalDussehra:        {"dussehra", "dasara", "vijayadashami", "ravana"},
	entities.FestivalNavratri:        {"navratri", "garba", "dandiya", "chaniya choli"},
	entities.FestivalDurgaPuja:       {"durga", "durga puja", "pujo", "shola"},
	entities.FestivalGaneshChaturthi: {"ganesh", "ganesha", "ganpati", "chaturthi", "modak"},
	entities.FestivalKarvaChauth:     {"karva", "karwa", "karva chauth", "sieve"},
	entities.FestivalRakshaBandhan:   {"rakhi", "raksha bandhan", "rakshabandhan"},
	entities.FestivalEid:             {"eid", "ramadan", "ramzan", "iftar", "attar"},
	entities.FestivalChristmas:       {"christmas", "xmas", "nativity", "ornament", "star"},
	entities.FestivalPongal:          {"pongal", "sankranti", "kolam", "harvest"},
	entities.FestivalOnam:            {"onam", "pookalam", "kasavu", "sadya"},
	entities.FestivalBaisakhi:        {"baisakhi", "vaisakhi", "bhangra"},
	entities.FestivalDhanteras:       {"dhanteras", "dhanatrayodashi", "gold", "silver coin", "utensil"},
	entities.FestivalWeddingSeason:   {"wedding", "bridal", "shaadi", "mehndi", "sangeet"},
}

// MaterialKeywords is the vocabulary matched when extracting materials.
var MaterialKeywords = []string{
	"clay", "terracotta", "glaze", "silk", "cotton", "wool", "pashmina", "jute",
	"brass", "copper", "bronze", "silver", "gold", "iron", "bell metal",
	"wood", "teak", "sheesham", "rosewood", "sandalwood", "walnut wood",
	"bamboo", "cane", "leather", "marble", "soapstone", "sandstone",
	"glass", "paper", "lacquer", "beads", "shell", "zari", "natural dyes",
}

// TechniqueKeywords is the vocabulary matched when extracting traditional
// techniques.
var TechniqueKeywords = []string{
	"hand woven", "handwoven", "handloom", "hand painted", "hand carved", "hand block",
	"block printing", "block print", "tie dye", "bandhani", "ikat", "embroidery",
	"zardozi", "chikankari", "kantha", "phulkari", "lost wax", "dhokra", "inlay",
	"filigree", "enamel", "meenakari", "kundan", "wheel thrown", "coiling",
	"lacquering", "repousse", "appliqué", "applique", "mirror work", "weaving",
}
