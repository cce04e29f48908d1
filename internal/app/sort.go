package app

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/matteolefer/escapedia/internal/domain"
)

// newCollator builds the ordering used for titles and city names:
// French collation ignoring case and diacritics, so "École" sorts with
// "ecole" while keeping its accents in the stored string. Collators
// are not safe for concurrent use, hence one per sort.
func newCollator() *collate.Collator {
	return collate.New(language.French, collate.Loose)
}

func sortExperiences(list []domain.Experience) {
	c := newCollator()
	sort.SliceStable(list, func(i, j int) bool {
		return c.CompareString(list[i].Title, list[j].Title) < 0
	})
}

func sortCities(cities []domain.City) {
	c := newCollator()
	sort.SliceStable(cities, func(i, j int) bool {
		return c.CompareString(cities[i].Name, cities[j].Name) < 0
	})
}
