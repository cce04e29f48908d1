package domain

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Source records where an experience came from and when it was last
// refreshed (year-month, e.g. "2026-08").
type Source struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	RetrievedAt string `json:"retrievedAt,omitempty"`
}

// Experience is one point of interest attached to a City.
// Numeric fields are pointers: nil means "the provider gave nothing",
// which serializes as JSON null and is never coerced to zero.
type Experience struct {
	ID           string   `json:"id,omitempty"`
	PlaceID      string   `json:"placeId,omitempty"`
	Title        string   `json:"title"`
	Category     string   `json:"category,omitempty"`
	Description  string   `json:"description,omitempty"`
	Address      string   `json:"address"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Rating       *float64 `json:"rating"`
	RatingsTotal *int     `json:"ratingsTotal"`
	Status       *string  `json:"status"`
	Website      string   `json:"website,omitempty"`
	Image        string   `json:"image,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	Types        []string `json:"types,omitempty"`
	Source       *Source  `json:"source,omitempty"`
}

// City is one travel destination. Fields the pipeline does not model
// (summary, highlights, quickFacts, ...) belong to the front end and
// round-trip untouched through extra.
type City struct {
	Name        string
	Slug        string
	Country     string
	HeroImage   string
	Experiences []Experience

	// legacyActivities is set when the record stored its experiences
	// under the historical "activities" key; rewrites keep that key.
	legacyActivities bool
	present          map[string]bool
	extra            map[string]json.RawMessage
}

var cityKnownKeys = []string{"name", "slug", "country", "heroImage", "experiences", "activities"}

// marshalNoEscape marshals without HTML-escaping &, <, > so stored
// URLs survive a rewrite byte-for-byte.
func marshalNoEscape(v any) ([]byte, error) {
	var b bytes.Buffer
	e := json.NewEncoder(&b)
	e.SetEscapeHTML(false)
	if err := e.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}

func (c *City) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = City{present: map[string]bool{}, extra: map[string]json.RawMessage{}}

	str := func(key string, dst *string) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		c.present[key] = true
		return json.Unmarshal(v, dst)
	}
	if err := str("name", &c.Name); err != nil {
		return err
	}
	if err := str("slug", &c.Slug); err != nil {
		return err
	}
	if err := str("country", &c.Country); err != nil {
		return err
	}
	if err := str("heroImage", &c.HeroImage); err != nil {
		return err
	}

	if v, ok := raw["activities"]; ok {
		c.legacyActivities = true
		if err := json.Unmarshal(v, &c.Experiences); err != nil {
			return err
		}
	} else if v, ok := raw["experiences"]; ok {
		if err := json.Unmarshal(v, &c.Experiences); err != nil {
			return err
		}
	}

	known := map[string]bool{}
	for _, k := range cityKnownKeys {
		known[k] = true
	}
	for k, v := range raw {
		if !known[k] {
			c.extra[k] = v
		}
	}
	return nil
}

func (c City) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	put := func(key string, v any) error {
		b, err := marshalNoEscape(v)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, _ := json.Marshal(key)
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(b)
		return nil
	}
	putStr := func(key, v string) error {
		if v == "" && !c.present[key] {
			return nil
		}
		return put(key, v)
	}
	if err := put("name", c.Name); err != nil {
		return nil, err
	}
	if err := putStr("slug", c.Slug); err != nil {
		return nil, err
	}
	if err := putStr("country", c.Country); err != nil {
		return nil, err
	}
	if err := putStr("heroImage", c.HeroImage); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(c.extra))
	for k := range c.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := put(k, c.extra[k]); err != nil {
			return nil, err
		}
	}

	expKey := "experiences"
	if c.legacyActivities {
		expKey = "activities"
	}
	exps := c.Experiences
	if exps == nil {
		exps = []Experience{}
	}
	if err := put(expKey, exps); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CitySummary is the listing projection served by the read API.
type CitySummary struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Country     string `json:"country,omitempty"`
	HeroImage   string `json:"heroImage,omitempty"`
	Experiences int    `json:"experienceCount"`
}

func (c City) Summary() CitySummary {
	return CitySummary{
		Name:        c.Name,
		Slug:        c.Slug,
		Country:     c.Country,
		HeroImage:   c.HeroImage,
		Experiences: len(c.Experiences),
	}
}
