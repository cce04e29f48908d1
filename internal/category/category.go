// Package category maps provider type tags to the closed set of
// human-facing experience categories.
package category

// Fallback is returned when no rule matches.
const Fallback = "Découverte"

type rule struct {
	label string
	tags  []string
}

// Rules are evaluated in declaration order; the first rule sharing a
// tag with the input wins, so earlier labels take precedence when a
// place carries tags from several groups.
var rules = []rule{
	{"Culture", []string{
		"museum", "art_gallery", "tourist_attraction", "historical_landmark",
		"monument", "memorial", "church", "hindu_temple", "mosque", "synagogue",
		"place_of_worship", "library", "castle", "gallery", "artwork", "attraction",
	}},
	{"Gastronomie", []string{
		"restaurant", "food", "cafe", "bakery", "meal_takeaway", "meal_delivery",
	}},
	{"Vie nocturne", []string{"bar", "night_club", "pub", "nightclub"}},
	{"Nature", []string{
		"park", "natural_feature", "campground", "zoo", "botanical_garden",
		"garden", "nature_reserve", "viewpoint", "beach",
	}},
	{"Pratique", []string{"tourist_information_center", "information"}},
	{"Découverte", []string{"point_of_interest", "establishment"}},
}

// Classify returns the category for a set of lowercase provider tags.
func Classify(tags []string) string {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	for _, r := range rules {
		for _, t := range r.tags {
			if set[t] {
				return r.label
			}
		}
	}
	return Fallback
}

// Labels returns the closed label set in precedence order.
func Labels() []string {
	out := make([]string, 0, len(rules))
	seen := map[string]bool{}
	for _, r := range rules {
		if !seen[r.label] {
			seen[r.label] = true
			out = append(out, r.label)
		}
	}
	return out
}
