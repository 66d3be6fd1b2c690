package domain

import "context"

type ListingRepository interface {
	Insert(ctx context.Context, l Listing) error
	Update(ctx context.Context, l Listing) error
	Get(ctx context.Context, id string) (Listing, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// AssetStore uploads raw bytes to the object store and returns where they live.
type AssetStore interface {
	Upload(ctx context.Context, a Asset) (StoredAsset, error)
}

type Asset struct {
	Folder      string
	Filename    string
	ContentType string
	Data        []byte
}

type StoredAsset struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Format    string `json:"format,omitempty"`
	Bytes     int64  `json:"bytes,omitempty"`
}
