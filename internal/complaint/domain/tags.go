package domain

import "strings"

// tagGroups are scanned in order so generated tags come out in a stable
// sequence regardless of where the keywords appear in the text.
var tagGroups = []struct {
	tag      string
	keywords []string
}{
	{"urgent", []string{"urgent", "emergency", "immediate", "asap"}},
	{"power", []string{"electricity", "power", "current", "voltage", "outage", "blackout"}},
	{"water", []string{"water", "supply", "leakage", "pipe", "drainage"}},
	{"road", []string{"road", "pothole", "street", "traffic", "signal"}},
	{"railway", []string{"train", "railway", "station", "track", "booking"}},
	{"police", []string{"police", "crime", "theft", "safety", "security"}},
	{"municipal", []string{"garbage", "waste", "cleaning", "sanitation", "park"}},
}

// GenerateTags derives search tags from the complaint text. The
// category always comes first, followed by keyword-group tags in fixed
// order, deduplicated.
func GenerateTags(category Category, title, description string) []string {
	text := strings.ToLower(title + " " + description)

	tags := []string{string(category)}
	seen := map[string]bool{string(category): true}

	for _, group := range tagGroups {
		if seen[group.tag] {
			continue
		}
		for _, keyword := range group.keywords {
			if strings.Contains(text, keyword) {
				tags = append(tags, group.tag)
				seen[group.tag] = true
				break
			}
		}
	}

	return tags
}
