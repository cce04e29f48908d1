package osm

import (
	"fmt"
	"strings"
	"time"

	"github.com/matteolefer/escapedia/internal/category"
	"github.com/matteolefer/escapedia/internal/domain"
)

// tag keys whose values become classifier input, in a fixed order so
// the derived type list is stable across runs.
var typeTagKeys = []string{"tourism", "leisure", "amenity", "historic"}

// normalizeElement converts one Overpass element into the canonical
// experience schema, or nil when the element lacks an identity.
func normalizeElement(el map[string]any) *domain.Experience {
	id := elementID(el)
	name := tagValue(el, "name")
	if id == "" || name == "" {
		return nil
	}

	tags := typeTags(el)
	lat, lon := coordinates(el)

	e := &domain.Experience{
		PlaceID:     id,
		Title:       name,
		Category:    category.Classify(tags),
		Description: tagValue(el, "description"),
		Address:     composeAddress(el),
		Latitude:    lat,
		Longitude:   lon,
		Website:     firstTag(el, "website", "contact:website"),
		Types:       tags,
		Source: &domain.Source{
			Name:        "OpenStreetMap",
			URL:         elementURL(el),
			RetrievedAt: time.Now().UTC().Format("2006-01"),
		},
	}
	if img := tagValue(el, "image"); img != "" {
		e.Image = img
		e.ImageURL = img
	}
	return e
}

// elementID yields the provider-scoped identifier, e.g. "osm:way/123".
func elementID(el map[string]any) string {
	typ, _ := el["type"].(string)
	idNum, ok := el["id"].(float64)
	if typ == "" || !ok {
		return ""
	}
	return fmt.Sprintf("osm:%s/%d", typ, int64(idNum))
}

func elementURL(el map[string]any) string {
	typ, _ := el["type"].(string)
	idNum, ok := el["id"].(float64)
	if typ == "" || !ok {
		return ""
	}
	return fmt.Sprintf("https://www.openstreetmap.org/%s/%d", typ, int64(idNum))
}

// coordinates come from the element itself for nodes and from the
// computed center for ways and relations. Only genuine numbers pass.
func coordinates(el map[string]any) (*float64, *float64) {
	if lat, ok := el["lat"].(float64); ok {
		if lon, ok := el["lon"].(float64); ok {
			return &lat, &lon
		}
	}
	if center, ok := el["center"].(map[string]any); ok {
		if lat, ok := center["lat"].(float64); ok {
			if lon, ok := center["lon"].(float64); ok {
				return &lat, &lon
			}
		}
	}
	return nil, nil
}

func typeTags(el map[string]any) []string {
	var out []string
	for _, key := range typeTagKeys {
		if v := tagValue(el, key); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// composeAddress assembles "12 Rue de la République, 69002 Lyon,
// France" from addr:* tags; segments with no data are skipped.
func composeAddress(el map[string]any) string {
	street := strings.TrimSpace(tagValue(el, "addr:housenumber") + " " + tagValue(el, "addr:street"))
	locality := strings.TrimSpace(tagValue(el, "addr:postcode") + " " + tagValue(el, "addr:city"))
	country := tagValue(el, "addr:country")

	var parts []string
	for _, p := range []string{street, locality, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func tagValue(el map[string]any, key string) string {
	tags, _ := el["tags"].(map[string]any)
	if tags == nil {
		return ""
	}
	v, _ := tags[key].(string)
	return v
}

func firstTag(el map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := tagValue(el, k); v != "" {
			return v
		}
	}
	return ""
}
