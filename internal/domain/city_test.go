package domain_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/matteolefer/escapedia/internal/domain"
)

func TestCityMarshalOrderAndDefaults(t *testing.T) {
	c := domain.City{
		Name:      "Annecy",
		Slug:      "annecy",
		Country:   "France",
		HeroImage: "https://example.com/annecy.jpg",
	}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	order := []string{`"name"`, `"slug"`, `"country"`, `"heroImage"`, `"experiences"`}
	last := -1
	for _, key := range order {
		i := strings.Index(s, key)
		if i < 0 {
			t.Fatalf("missing %s in %s", key, s)
		}
		if i < last {
			t.Fatalf("key %s out of order in %s", key, s)
		}
		last = i
	}
	if !strings.Contains(s, `"experiences":[]`) {
		t.Errorf("nil experiences should serialize as an empty array: %s", s)
	}
}

func TestCityRoundTripKeepsUnknownFields(t *testing.T) {
	in := `{"name":"Porto","slug":"porto","summary":"Vin & azulejos","quickFacts":[{"label":"Monnaie","value":"Euro"}],"experiences":[]}`
	var c domain.City
	if err := json.Unmarshal([]byte(in), &c); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"summary":"Vin & azulejos"`, `"quickFacts"`, `"Monnaie"`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("round trip dropped %s: %s", want, out)
		}
	}
}

func TestCityRoundTripKeepsEmptyKnownFields(t *testing.T) {
	in := `{"name":"Nowhere","slug":"","country":"","experiences":[]}`
	var c domain.City
	if err := json.Unmarshal([]byte(in), &c); err != nil {
		t.Fatal(err)
	}
	out, _ := json.Marshal(c)
	if !strings.Contains(string(out), `"slug":""`) || !strings.Contains(string(out), `"country":""`) {
		t.Errorf("present-but-empty fields dropped: %s", out)
	}
}

func TestExperienceNullableNumerics(t *testing.T) {
	e := domain.Experience{ID: "x", Title: "X", Address: ""}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, want := range []string{`"latitude":null`, `"longitude":null`, `"rating":null`, `"ratingsTotal":null`, `"status":null`} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %s in %s", want, s)
		}
	}
	if strings.Contains(s, `"duration"`) || strings.Contains(s, `"types"`) || strings.Contains(s, `"source"`) {
		t.Errorf("optional curation fields should be omitted when absent: %s", s)
	}
}

func TestCitySummary(t *testing.T) {
	c := domain.City{Name: "Lyon", Slug: "lyon", Experiences: []domain.Experience{{ID: "a", Title: "A"}}}
	sum := c.Summary()
	if sum.Slug != "lyon" || sum.Experiences != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}
