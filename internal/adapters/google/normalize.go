package google

import (
	"time"

	"github.com/matteolefer/escapedia/internal/category"
	"github.com/matteolefer/escapedia/internal/domain"
)

// business_status values mapped to the human-facing labels; anything
// the mapping does not know passes through verbatim.
var statusLabels = map[string]string{
	"OPERATIONAL":        "currently open",
	"CLOSED_TEMPORARILY": "temporarily closed",
	"CLOSED_PERMANENTLY": "permanently closed",
}

// normalize converts one Place Details payload into the canonical
// experience schema. Numbers are taken only when the provider sent a
// genuine JSON number; anything else stays null.
func normalize(detail map[string]any, photoURL string) *domain.Experience {
	name, _ := detail["name"].(string)
	placeID, _ := detail["place_id"].(string)
	tags := strSlice(detail["types"])

	e := &domain.Experience{
		PlaceID:      placeID,
		Title:        name,
		Category:     category.Classify(tags),
		Description:  nestedStr(detail, "editorial_summary", "overview"),
		Address:      str(detail["formatted_address"]),
		Latitude:     num(nested(detail, "geometry", "location", "lat")),
		Longitude:    num(nested(detail, "geometry", "location", "lng")),
		Rating:       num(detail["rating"]),
		RatingsTotal: count(detail["user_ratings_total"]),
		Status:       statusLabel(detail["business_status"]),
		Website:      str(detail["website"]),
		Types:        tags,
	}
	if photoURL != "" {
		e.Image = photoURL
		e.ImageURL = photoURL
	}
	if placeID != "" {
		e.Source = &domain.Source{
			Name:        "Google Places",
			URL:         "https://www.google.com/maps/place/?q=place_id:" + placeID,
			RetrievedAt: time.Now().UTC().Format("2006-01"),
		}
	}
	return e
}

func statusLabel(v any) *string {
	raw, ok := v.(string)
	if !ok || raw == "" {
		return nil
	}
	if label, ok := statusLabels[raw]; ok {
		return &label
	}
	return &raw
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}

func count(v any) *int {
	f, ok := v.(float64)
	if !ok || f < 0 {
		return nil
	}
	n := int(f)
	return &n
}

func strSlice(v any) []string {
	raw, _ := v.([]any)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, it := range raw {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nested(m map[string]any, path ...string) any {
	cur := any(m)
	for _, p := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[p]
	}
	return cur
}

func nestedStr(m map[string]any, path ...string) string {
	return str(nested(m, path...))
}
