//go:build integration || !unit

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	httpserver "github.com/matteolefer/escapedia/internal/adapters/http_server"
	"github.com/matteolefer/escapedia/internal/adapters/memcache"
	"github.com/matteolefer/escapedia/internal/adapters/osm"
	"github.com/matteolefer/escapedia/internal/app"
	"github.com/matteolefer/escapedia/internal/domain"
	"github.com/matteolefer/escapedia/internal/storage/dataset"
)

// fakeOSM stands in for Nominatim and Overpass on one mux.
func fakeOSM(t *testing.T, nominatim []map[string]any, elements []map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(nominatim)
	})
	mux.HandleFunc("/api/interpreter", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"elements": elements})
	})
	return httptest.NewServer(mux)
}

func newOSM(ts *httptest.Server) *osm.Client {
	return osm.New(osm.Options{
		NominatimBase: ts.URL,
		OverpassBase:  ts.URL + "/api/interpreter",
		Language:      "fr",
		UserAgent:     "escapedia-test/1.0",
	})
}

func seedFile(t *testing.T, cities []domain.City) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cities.json")
	if err := dataset.New(path).Save(context.Background(), cities); err != nil {
		t.Fatalf("seed dataset: %v", err)
	}
	return path
}

// Full pass: search, resolve, reconcile, sort, rewrite. The park comes
// back from Overpass and must land in the file under its derived id.
func TestSyncEndToEnd(t *testing.T) {
	ts := fakeOSM(t,
		[]map[string]any{{"osm_type": "relation", "osm_id": 120965, "display_name": "Lyon, France"}},
		[]map[string]any{
			{"type": "way", "id": 4580910, "center": map[string]any{"lat": 45.7775, "lon": 4.8528},
				"tags": map[string]any{"name": "Parc de la Tête d'Or", "leisure": "park",
					"website": "https://www.lyon.fr/lieu/parcs/parc-de-la-tete-dor"}},
			{"type": "node", "id": 7, "lat": 45.7679, "lon": 4.8336,
				"tags": map[string]any{"name": "Musée des Beaux-Arts", "tourism": "museum"}},
		},
	)
	defer ts.Close()

	path := seedFile(t, []domain.City{
		{Name: "Paris", Slug: "paris", Country: "France"},
		{Name: "Lyon", Slug: "lyon", Country: "France", Experiences: []domain.Experience{
			{ID: "zoo-de-lyon", Title: "Zoo de Lyon", Category: "Nature"},
		}},
	})
	store := dataset.New(path)

	svc := app.NewSyncService(newOSM(ts), store)
	res, err := svc.Run(context.Background(), "Lyon", "France")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Added != 2 || res.Skipped != 0 || !res.Wrote {
		t.Fatalf("result = %+v", res)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	if !strings.HasSuffix(string(raw), "\n") {
		t.Fatal("dataset must end with a newline")
	}
	if !strings.Contains(string(raw), "\n  {") {
		t.Fatal("dataset must be two-space indented")
	}

	cities, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Cities re-sorted by name.
	if cities[0].Name != "Lyon" || cities[1].Name != "Paris" {
		t.Fatalf("city order: %s, %s", cities[0].Name, cities[1].Name)
	}
	exps := cities[0].Experiences
	if len(exps) != 3 {
		t.Fatalf("experiences = %d", len(exps))
	}
	// Accent-insensitive title order.
	if exps[0].Title != "Musée des Beaux-Arts" || exps[1].Title != "Parc de la Tête d'Or" || exps[2].Title != "Zoo de Lyon" {
		t.Fatalf("experience order: %q %q %q", exps[0].Title, exps[1].Title, exps[2].Title)
	}
	parc := exps[1]
	if parc.ID != "parc-de-la-tete-d-or" {
		t.Fatalf("id = %q", parc.ID)
	}
	if parc.Category != "Nature" {
		t.Fatalf("category = %q", parc.Category)
	}
	if parc.Source == nil || parc.Source.Name != "OpenStreetMap" {
		t.Fatalf("source = %+v", parc.Source)
	}
	if parc.Latitude == nil || *parc.Latitude != 45.7775 {
		t.Fatalf("latitude = %v", parc.Latitude)
	}
}

// A second identical run must change nothing and keep curated fields.
func TestSyncIsIdempotent(t *testing.T) {
	elements := []map[string]any{
		{"type": "way", "id": 11, "center": map[string]any{"lat": 45.77, "lon": 4.85},
			"tags": map[string]any{"name": "Parc de la Tête d'Or", "leisure": "park"}},
	}
	ts := fakeOSM(t,
		[]map[string]any{{"osm_type": "relation", "osm_id": 120965}},
		elements,
	)
	defer ts.Close()

	path := seedFile(t, []domain.City{{Name: "Lyon", Slug: "lyon", Country: "France"}})
	store := dataset.New(path)
	svc := app.NewSyncService(newOSM(ts), store)

	if _, err := svc.Run(context.Background(), "Lyon", ""); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Curate between runs: duration and a manual category override.
	cities, _ := store.Load(context.Background())
	cities[0].Experiences[0].Duration = "2h"
	cities[0].Experiences[0].Category = "Découverte"
	if err := store.Save(context.Background(), cities); err != nil {
		t.Fatalf("curate: %v", err)
	}

	res, err := svc.Run(context.Background(), "Lyon", "")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Added != 0 || res.Updated != 0 {
		t.Fatalf("result = %+v", res)
	}
	cities, _ = store.Load(context.Background())
	got := cities[0].Experiences[0]
	if got.Duration != "2h" || got.Category != "Découverte" {
		t.Fatalf("curated fields lost: %+v", got)
	}
}

// Zero provider results must leave the file byte-identical.
func TestSyncZeroResultsLeavesFileUntouched(t *testing.T) {
	ts := fakeOSM(t,
		[]map[string]any{{"osm_type": "relation", "osm_id": 120965}},
		[]map[string]any{},
	)
	defer ts.Close()

	path := seedFile(t, []domain.City{{Name: "Lyon", Slug: "lyon", Country: "France"}})
	before, _ := os.ReadFile(path)

	svc := app.NewSyncService(newOSM(ts), dataset.New(path))
	res, err := svc.Run(context.Background(), "Lyon", "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Wrote {
		t.Fatal("expected no write on zero results")
	}
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Fatal("file changed on zero-result run")
	}
}

// Sync then serve: the API must expose what the run wrote.
func TestSyncThenServe(t *testing.T) {
	ts := fakeOSM(t,
		[]map[string]any{{"osm_type": "relation", "osm_id": 120965}},
		[]map[string]any{
			{"type": "way", "id": 21, "center": map[string]any{"lat": 45.77, "lon": 4.85},
				"tags": map[string]any{"name": "Parc de la Tête d'Or", "leisure": "park"}},
		},
	)
	defer ts.Close()

	path := seedFile(t, []domain.City{{Name: "Lyon", Slug: "lyon", Country: "France"}})
	store := dataset.New(path)
	if _, err := app.NewSyncService(newOSM(ts), store).Run(context.Background(), "Lyon", ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	q := app.NewQueryService(store, memcache.New(), 0)
	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{Q: q})
	api := httptest.NewServer(srv.Mux())
	defer api.Close()

	resp, err := http.Get(api.URL + "/v1/cities/lyon")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var c domain.City
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(c.Experiences) != 1 || c.Experiences[0].ID != "parc-de-la-tete-d-or" {
		t.Fatalf("unexpected city: %+v", c)
	}
}
