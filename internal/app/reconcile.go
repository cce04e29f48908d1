package app

import (
	"sort"

	"github.com/matteolefer/escapedia/internal/domain"
	"github.com/matteolefer/escapedia/internal/slug"
)

// reconcile folds one normalized place into a city's experience list.
// Returns the updated list plus whether a record was created and
// whether an existing record's resolved value actually changed.
func reconcile(list []domain.Experience, in domain.Experience) ([]domain.Experience, bool, bool) {
	idx := matchIndex(list, in)
	if idx < 0 {
		if in.ID == "" {
			in.ID = slug.Make(in.Title)
		}
		mirrorImage(&in)
		return append(list, in), true, false
	}
	merged, changed := merge(list[idx], in)
	list[idx] = merged
	return list, false, changed
}

// matchIndex finds the first prior record the incoming place refers
// to: by provider placeId, by derived title slug, or by provenance
// URL. When two keys point at different records the earlier record
// wins and the other lingers as a stale duplicate; callers log enough
// identity to diagnose that.
func matchIndex(list []domain.Experience, in domain.Experience) int {
	titleKey := slug.Make(in.Title)
	for i, e := range list {
		if in.PlaceID != "" && e.PlaceID == in.PlaceID {
			return i
		}
		if titleKey != "" && e.ID == titleKey {
			return i
		}
		if in.Source != nil && e.Source != nil && in.Source.URL != "" && e.Source.URL == in.Source.URL {
			return i
		}
	}
	return -1
}

// merge applies field-level precedence: fresh non-empty values win for
// everything the provider can re-verify; locally curated fields
// (duration, and category once set) keep their prior value. An absent
// or null incoming value never erases stored data.
func merge(prior, in domain.Experience) (domain.Experience, bool) {
	out := prior
	changed := false

	setStr := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	setFloat := func(dst **float64, v *float64) {
		if v != nil && (*dst == nil || **dst != *v) {
			f := *v
			*dst = &f
			changed = true
		}
	}

	setStr(&out.Title, in.Title)
	if out.Category == "" {
		setStr(&out.Category, in.Category)
	}
	setStr(&out.Description, in.Description)
	setStr(&out.Address, in.Address)
	setFloat(&out.Latitude, in.Latitude)
	setFloat(&out.Longitude, in.Longitude)
	setFloat(&out.Rating, in.Rating)
	if in.RatingsTotal != nil && (out.RatingsTotal == nil || *out.RatingsTotal != *in.RatingsTotal) {
		n := *in.RatingsTotal
		out.RatingsTotal = &n
		changed = true
	}
	if in.Status != nil && *in.Status != "" && (out.Status == nil || *out.Status != *in.Status) {
		s := *in.Status
		out.Status = &s
		changed = true
	}
	setStr(&out.Website, in.Website)

	if img := firstNonEmpty(in.Image, in.ImageURL); img != "" && (out.Image != img || out.ImageURL != img) {
		out.Image = img
		out.ImageURL = img
		changed = true
	}

	if len(in.Types) > 0 && !sameTags(out.Types, in.Types) {
		out.Types = append([]string(nil), in.Types...)
		changed = true
	}

	if out.PlaceID == "" && in.PlaceID != "" {
		out.PlaceID = in.PlaceID
		changed = true
	}
	if out.ID == "" {
		out.ID = slug.Make(out.Title)
		changed = true
	}

	if in.Source != nil {
		if out.Source == nil {
			src := *in.Source
			out.Source = &src
			changed = true
		} else {
			src := *out.Source
			if src.Name == "" && in.Source.Name != "" {
				src.Name = in.Source.Name
				changed = true
			}
			if src.URL == "" && in.Source.URL != "" {
				src.URL = in.Source.URL
				changed = true
			}
			// the retrieval stamp only fills a gap; refreshing it on
			// every run would churn the file without new information
			if src.RetrievedAt == "" && in.Source.RetrievedAt != "" {
				src.RetrievedAt = in.Source.RetrievedAt
				changed = true
			}
			out.Source = &src
		}
	}

	return out, changed
}

// mirrorImage keeps the two compatibility keys carrying one value.
func mirrorImage(e *domain.Experience) {
	if img := firstNonEmpty(e.Image, e.ImageURL); img != "" {
		e.Image = img
		e.ImageURL = img
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func sameTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
