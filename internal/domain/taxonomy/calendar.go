package taxonomy

import (
	"time"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

// festivalCalendar maps a month to the festivals usually active in it.
// Lunar festivals drift; each is listed under every month it commonly falls in.
var festivalCalendar = map[time.Month][]entities.Festival{
	time.January:   {entities.FestivalPongal, entities.FestivalWeddingSeason},
	time.February:  {entities.FestivalWeddingSeason},
	time.March:     {entities.FestivalHoli, entities.FestivalEid},
	time.April:     {entities.FestivalBaisakhi, entities.FestivalEid},
	time.May:       {},
	time.June:      {entities.FestivalEid},
	time.July:      {},
	time.August:    {entities.FestivalRakshaBandhan, entities.FestivalOnam},
	time.September: {entities.FestivalGaneshChaturthi, entities.FestivalOnam},
	time.October:   {entities.FestivalNavratri, entities.FestivalDurgaPuja, entities.FestivalDussehra, entities.FestivalKarvaChauth, entities.FestivalWeddingSeason},
	time.November:  {entities.FestivalDiwali, entities.FestivalDhanteras, entities.FestivalWeddingSeason},
	time.December:  {entities.FestivalChristmas, entities.FestivalWeddingSeason},
}

// FestivalsForMonth returns a copy of the festivals active in m.
func FestivalsForMonth(m time.Month) []entities.Festival {
	return append([]entities.Festival{}, festivalCalendar[m]...)
}

// IsWeddingSeason reports whether m falls in the October to February window.
func IsWeddingSeason(m time.Month) bool {
	return m >= time.October || m <= time.February
}

// seasonalQueries seeds the candidate pool for festival requests.
var seasonalQueries = map[entities.Festival][]string{
	entities.FestivalDiwali:          {"diwali diya", "festival lamp", "rangoli decor", "lakshmi idol"},
	entities.FestivalDhanteras:       {"brass utensil", "silver coin", "copper vessel"},
	entities.FestivalHoli:            {"holi colours", "festival gift"},
	entities.FestivalNavratri:        {"garba dandiya", "chaniya choli", "festival textile"},
	entities.FestivalDurgaPuja:       {"durga idol", "bengal saree", "shola craft"},
	entities.FestivalDussehra:        {"festival decor", "dussehra gift"},
	entities.FestivalGaneshChaturthi: {"ganesha idol", "clay ganesh"},
	entities.FestivalKarvaChauth:     {"karva pot", "pooja thali"},
	entities.FestivalRakshaBandhan:   {"rakhi", "gift for sister"},
	entities.FestivalEid:             {"eid gift", "attar bottle", "embroidered textile"},
	entities.FestivalChristmas:       {"christmas ornament", "handmade gift"},
	entities.FestivalPongal:          {"pongal pot", "kolam decor"},
	entities.FestivalOnam:            {"kasavu saree", "onam decor"},
	entities.FestivalBaisakhi:        {"phulkari", "punjabi jutti"},
	entities.FestivalWeddingSeason:   {"wedding gift", "bridal jewelry", "bridal saree"},
}

// SeasonalQueries returns themed search queries for the festivals, always
// led by the generic festival queries.
func SeasonalQueries(festivals []entities.Festival) []string {
	out := []string{"festival", "festive gift"}
	seen := map[string]struct{}{"festival": {}, "festive gift": {}}
	for _, f := range festivals {
		for _, q := range append([]string{string(f)}, seasonalQueries[f]...) {
			if _, ok := seen[q]; ok {
				continue
			}
			seen[q] = struct{}{}
			out = append(out, q)
		}
	}
	return out
}
