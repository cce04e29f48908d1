package category_test

import (
	"testing"

	"github.com/matteolefer/escapedia/internal/category"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		tags []string
		want string
	}{
		{"museum", []string{"museum"}, "Culture"},
		{"restaurant beats park", []string{"restaurant", "park"}, "Gastronomie"},
		{"park beats generic poi", []string{"point_of_interest", "park"}, "Nature"},
		{"culture beats everything", []string{"restaurant", "museum", "bar"}, "Culture"},
		{"nightlife", []string{"night_club"}, "Vie nocturne"},
		{"info center", []string{"tourist_information_center"}, "Pratique"},
		{"generic", []string{"establishment"}, "Découverte"},
		{"unknown tags", []string{"laundry", "atm"}, category.Fallback},
		{"empty", nil, category.Fallback},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := category.Classify(c.tags); got != c.want {
				t.Fatalf("Classify(%v) = %q, want %q", c.tags, got, c.want)
			}
		})
	}
}

func TestLabelsClosedSet(t *testing.T) {
	want := []string{"Culture", "Gastronomie", "Vie nocturne", "Nature", "Pratique", "Découverte"}
	got := category.Labels()
	if len(got) != len(want) {
		t.Fatalf("labels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labels[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
