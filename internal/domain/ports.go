package domain

import "context"

// PlaceStub is the minimal record a provider search yields. Raw holds
// the provider payload captured at search time so sources that answer
// in bulk (Overpass) can resolve stubs without another round trip.
type PlaceStub struct {
	ID   string
	Name string
	Raw  map[string]any
}

// PlacesSource yields places for a free-text location. Resolve returns
// (nil, nil) when the provider declined that one record; callers log
// and continue with the rest.
type PlacesSource interface {
	Name() string
	Search(ctx context.Context, location string) ([]PlaceStub, error)
	Resolve(ctx context.Context, stub PlaceStub) (*Experience, error)
}

// DatasetStore round-trips the whole city dataset: read fully, rewrite
// fully. There is no partial update path.
type DatasetStore interface {
	Load(ctx context.Context) ([]City, error)
	Save(ctx context.Context, cities []City) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	Reset(ctx context.Context) error
}
