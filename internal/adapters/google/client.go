// Package google adapts the Google Places web API to the
// domain.PlacesSource port: text search (paginated), per-place detail
// fetch, and photo URL resolution, each behind its own pacing limiter
// so provider quotas are respected no matter how callers loop.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/matteolefer/escapedia/internal/adapters/observability"
	"github.com/matteolefer/escapedia/internal/domain"
)

// defaultPageDelay paces pagination and quota retries; Google rejects
// a next_page_token requested too soon after it was issued.
const defaultPageDelay = 2 * time.Second

// searchQueries are the standing point-of-interest searches scoped to
// the target location.
var searchQueries = []string{"museums", "monuments", "restaurants", "parks"}

// detailFields is the explicit projection requested from Place
// Details; everything the canonical schema needs and nothing more.
const detailFields = "place_id,name,types,formatted_address,geometry/location,rating,user_ratings_total,business_status,photos,website,editorial_summary"

type Options struct {
	Base         string
	Key          string
	Language     string
	UserAgent    string
	TextDelay    time.Duration
	DetailsDelay time.Duration
	PhotoDelay   time.Duration
	PageDelay    time.Duration
	MaxPages     int // 0 = unlimited
}

type Client struct {
	base      string
	key       string
	language  string
	userAgent string
	maxPages  int
	pageDelay time.Duration

	hc         *http.Client
	noRedirect *http.Client

	textRL   *rate.Limiter
	detailRL *rate.Limiter
	photoRL  *rate.Limiter
}

func New(o Options) (*Client, error) {
	if o.Key == "" {
		return nil, fmt.Errorf("google: API key is required")
	}
	if o.Base == "" {
		o.Base = "https://maps.googleapis.com/maps/api/place"
	}
	if o.Language == "" {
		o.Language = "fr"
	}
	if o.PageDelay == 0 {
		o.PageDelay = defaultPageDelay
	}
	hc := &http.Client{Timeout: 20 * time.Second}
	return &Client{
		base:      o.Base,
		key:       o.Key,
		language:  o.Language,
		userAgent: o.UserAgent,
		maxPages:  o.MaxPages,
		pageDelay: o.PageDelay,
		hc:        hc,
		noRedirect: &http.Client{
			Timeout: 20 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		textRL:   limiter(o.TextDelay),
		detailRL: limiter(o.DetailsDelay),
		photoRL:  limiter(o.PhotoDelay),
	}, nil
}

// limiter turns a mandatory inter-call delay into a rate.Limiter so
// the wait is an explicit, context-aware step before every request.
func limiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

func (c *Client) Name() string { return "google" }

// Search runs every standing query against the location and returns
// the stubs, first occurrence first. A failed query is logged and the
// remaining queries still run; zero stubs overall is the caller's
// signal to end the run without writing.
func (c *Client) Search(ctx context.Context, location string) ([]domain.PlaceStub, error) {
	var stubs []domain.PlaceStub
	for _, q := range searchQueries {
		query := q + " in " + location
		results, err := c.textSearch(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return stubs, ctx.Err()
			}
			log.Error().Err(err).Str("query", query).Msg("text search failed")
			continue
		}
		log.Info().Int("results", len(results)).Str("query", query).Msg("text search done")
		for _, r := range results {
			id, _ := r["place_id"].(string)
			if id == "" {
				continue
			}
			name, _ := r["name"].(string)
			stubs = append(stubs, domain.PlaceStub{ID: id, Name: name})
		}
	}
	return stubs, nil
}

type textSearchPage struct {
	Status        string           `json:"status"`
	Results       []map[string]any `json:"results"`
	NextPageToken string           `json:"next_page_token"`
}

func (c *Client) textSearch(ctx context.Context, query string) ([]map[string]any, error) {
	var results []map[string]any
	pageToken := ""
	pages := 0

	for {
		q := url.Values{}
		q.Set("key", c.key)
		q.Set("language", c.language)
		if pageToken != "" {
			q.Set("pagetoken", pageToken)
		} else {
			q.Set("query", query)
		}

		var page textSearchPage
		if err := c.getJSON(ctx, c.textRL, "textsearch", c.base+"/textsearch/json?"+q.Encode(), &page); err != nil {
			return results, err
		}

		// quota and not-ready-yet responses are transient: wait and
		// retry in place, with no retry cap (operator interrupts if
		// the provider is truly stuck)
		if page.Status == "OVER_QUERY_LIMIT" {
			log.Warn().Str("query", query).Dur("wait", c.pageDelay).Msg("quota reached, retrying")
			if !sleepCtx(ctx, c.pageDelay) {
				return results, ctx.Err()
			}
			continue
		}
		if page.Status == "INVALID_REQUEST" && pageToken != "" {
			log.Warn().Str("query", query).Dur("wait", c.pageDelay).Msg("next page token not ready, retrying")
			if !sleepCtx(ctx, c.pageDelay) {
				return results, ctx.Err()
			}
			continue
		}
		if page.Status != "OK" && page.Status != "ZERO_RESULTS" {
			log.Warn().Str("status", page.Status).Str("query", query).Msg("text search returned non-OK status")
			return results, nil
		}

		results = append(results, page.Results...)
		if page.Status == "ZERO_RESULTS" {
			return results, nil
		}

		pages++
		if page.NextPageToken == "" || (c.maxPages > 0 && pages >= c.maxPages) {
			return results, nil
		}
		pageToken = page.NextPageToken
		if !sleepCtx(ctx, c.pageDelay) {
			return results, ctx.Err()
		}
	}
}

// Resolve fetches the detail record for one stub, resolves its first
// photo, and normalizes it. A provider refusal for this one place
// yields (nil, nil) so the run continues with the rest.
func (c *Client) Resolve(ctx context.Context, stub domain.PlaceStub) (*domain.Experience, error) {
	q := url.Values{}
	q.Set("key", c.key)
	q.Set("place_id", stub.ID)
	q.Set("fields", detailFields)
	q.Set("language", c.language)

	var payload struct {
		Status string         `json:"status"`
		Result map[string]any `json:"result"`
	}
	if err := c.getJSON(ctx, c.detailRL, "details", c.base+"/details/json?"+q.Encode(), &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" {
		log.Warn().Str("status", payload.Status).Str("placeId", stub.ID).Msg("place details returned non-OK status")
		return nil, nil
	}

	photoURL := ""
	if ref := firstPhotoReference(payload.Result); ref != "" {
		photoURL = c.resolvePhotoURL(ctx, ref)
	}
	return normalize(payload.Result, photoURL), nil
}

func firstPhotoReference(detail map[string]any) string {
	photos, _ := detail["photos"].([]any)
	if len(photos) == 0 {
		return ""
	}
	first, _ := photos[0].(map[string]any)
	ref, _ := first["photo_reference"].(string)
	return ref
}

// resolvePhotoURL follows the photo endpoint's redirect by hand so the
// stored URL is the stable image location, not the API endpoint.
// Failure is logged and reported as empty, never fatal.
func (c *Client) resolvePhotoURL(ctx context.Context, ref string) string {
	if err := c.photoRL.Wait(ctx); err != nil {
		return ""
	}
	q := url.Values{}
	q.Set("photo_reference", ref)
	q.Set("maxwidth", "1600")
	q.Set("key", c.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/photo?"+q.Encode(), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.noRedirect.Do(req)
	if err != nil {
		observability.ObserveExternal("google", "photo", 0, time.Since(start))
		log.Warn().Err(err).Str("photoRef", ref).Msg("photo resolution failed")
		return ""
	}
	defer resp.Body.Close()
	observability.ObserveExternal("google", "photo", resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if loc := resp.Header.Get("Location"); loc != "" {
			return loc
		}
	}
	if resp.StatusCode == http.StatusOK {
		return resp.Request.URL.String()
	}
	log.Warn().Int("status", resp.StatusCode).Str("photoRef", ref).Msg("unable to resolve photo URL")
	return ""
}

func (c *Client) getJSON(ctx context.Context, rl *rate.Limiter, endpoint, u string, out any) error {
	if err := rl.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("google", endpoint, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("google", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google %s: HTTP %d", endpoint, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
