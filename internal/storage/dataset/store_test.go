package dataset_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matteolefer/escapedia/internal/storage/dataset"
)

const sample = `[
  {
    "name": "Lyon",
    "slug": "lyon",
    "country": "France",
    "heroImage": "https://example.com/lyon.jpg",
    "summary": "Capitale des Gaules",
    "highlights": [
      {
        "icon": "🦁",
        "title": "Vieux Lyon"
      }
    ],
    "experiences": [
      {
        "id": "musee-des-confluences",
        "placeId": "gp:abc",
        "title": "Musée des Confluences",
        "category": "Culture",
        "address": "86 Quai Perrache, 69002 Lyon",
        "latitude": 45.7326,
        "longitude": 4.8178,
        "rating": 4.6,
        "ratingsTotal": 41230,
        "status": null
      }
    ]
  }
]
`

func write(t *testing.T, content string) *dataset.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cities.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dataset.New(path)
}

func TestLoad(t *testing.T) {
	st := write(t, sample)
	cities, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cities) != 1 || cities[0].Slug != "lyon" {
		t.Fatalf("unexpected cities: %+v", cities)
	}
	exps := cities[0].Experiences
	if len(exps) != 1 || exps[0].ID != "musee-des-confluences" {
		t.Fatalf("unexpected experiences: %+v", exps)
	}
	if exps[0].Rating == nil || *exps[0].Rating != 4.6 {
		t.Fatalf("rating not decoded: %+v", exps[0].Rating)
	}
	if exps[0].Status != nil {
		t.Fatalf("null status should decode to nil")
	}
}

func TestLoadErrors(t *testing.T) {
	st := dataset.New(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := st.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
	st = write(t, "{not json")
	if _, err := st.Load(context.Background()); err == nil {
		t.Fatal("expected error for malformed file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	st := write(t, sample)
	ctx := context.Background()
	cities, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := st.Save(ctx, cities); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := os.ReadFile(st.Path())
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.HasSuffix(s, "\n") {
		t.Error("output missing trailing newline")
	}
	if !strings.Contains(s, "  {\n") {
		t.Error("output not 2-space indented")
	}
	// passthrough fields the pipeline does not model must survive
	for _, want := range []string{`"summary"`, `"highlights"`, "Vieux Lyon", `"status": null`} {
		if !strings.Contains(s, want) {
			t.Errorf("rewrite dropped %s", want)
		}
	}

	// a second round trip must be byte-stable
	cities2, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := st.Save(ctx, cities2); err != nil {
		t.Fatalf("resave: %v", err)
	}
	out2, _ := os.ReadFile(st.Path())
	if string(out) != string(out2) {
		t.Error("save is not idempotent")
	}
}

func TestSaveKeepsLegacyActivitiesKey(t *testing.T) {
	legacy := strings.ReplaceAll(sample, `"experiences"`, `"activities"`)
	st := write(t, legacy)
	ctx := context.Background()
	cities, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cities[0].Experiences) != 1 {
		t.Fatalf("activities not folded into experiences: %+v", cities[0])
	}
	if err := st.Save(ctx, cities); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, _ := os.ReadFile(st.Path())
	if !strings.Contains(string(out), `"activities"`) || strings.Contains(string(out), `"experiences"`) {
		t.Errorf("legacy key not preserved:\n%s", out)
	}
}

func TestSaveUnescapedURLs(t *testing.T) {
	st := write(t, sample)
	ctx := context.Background()
	cities, _ := st.Load(ctx)
	cities[0].Experiences[0].Website = "https://example.com/?a=1&b=2"
	cities[0].Experiences[0].Image = "https://img.example.com/x?tok=3&w=1600"
	cities[0].Experiences[0].ImageURL = cities[0].Experiences[0].Image
	if err := st.Save(ctx, cities); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, _ := os.ReadFile(st.Path())
	if strings.Contains(string(out), `&`) {
		t.Error("ampersands were HTML-escaped")
	}
	if !strings.Contains(string(out), "a=1&b=2") {
		t.Error("website URL mangled")
	}
}
