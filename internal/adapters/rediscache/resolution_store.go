package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultResolutionTTL es lo que vive una resolución en Redis si no se configura otro valor.
const DefaultResolutionTTL = 30 * 24 * time.Hour

// resolutionRecord es el JSON guardado bajo resolution:{market_id}.
type resolutionRecord struct {
	Status         string `json:"status"`
	WinningAssetID string `json:"winning_asset_id,omitempty"`
}

// ResolutionStore implementa ports.ResolutionStore sobre Redis.
type ResolutionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewResolutionStore crea el store; ttl <= 0 usa DefaultResolutionTTL.
func NewResolutionStore(c *Client, ttl time.Duration) *ResolutionStore {
	if ttl <= 0 {
		ttl = DefaultResolutionTTL
	}
	return &ResolutionStore{rdb: c.rdb, ttl: ttl}
}

func resolutionKey(marketID string) string { return "resolution:" + marketID }

// GetResolution devuelve ok=false si la clave no existe o expiró.
func (s *ResolutionStore) GetResolution(ctx context.Context, marketID string) (domain.Resolution, bool, error) {
	data, err := s.rdb.Get(ctx, resolutionKey(marketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Resolution{}, false, nil
	}
	if err != nil {
		return domain.Resolution{}, false, fmt.Errorf("rediscache.GetResolution: %s: %w", marketID, err)
	}

	res, err := decodeResolution(data)
	if err != nil {
		return domain.Resolution{}, false, fmt.Errorf("rediscache.GetResolution: %s: %w", marketID, err)
	}
	return res, true, nil
}

// SaveResolution guarda con SETNX: si otro proceso ya la escribió, se conserva.
func (s *ResolutionStore) SaveResolution(ctx context.Context, marketID string, res domain.Resolution) error {
	data, err := encodeResolution(res)
	if err != nil {
		return fmt.Errorf("rediscache.SaveResolution: %s: %w", marketID, err)
	}
	if err := s.rdb.SetNX(ctx, resolutionKey(marketID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("rediscache.SaveResolution: %s: %w", marketID, err)
	}
	return nil
}

func encodeResolution(res domain.Resolution) ([]byte, error) {
	return json.Marshal(resolutionRecord{Status: res.Status.String(), WinningAssetID: res.WinningAssetID})
}

func decodeResolution(data []byte) (domain.Resolution, error) {
	var rec resolutionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Resolution{}, fmt.Errorf("unmarshal: %w", err)
	}
	switch rec.Status {
	case domain.ResolutionResolved.String():
		return domain.Resolved(rec.WinningAssetID), nil
	case domain.ResolutionUnresolved.String():
		return domain.Unresolved(), nil
	case domain.ResolutionUnknown.String():
		return domain.UnknownResolution(), nil
	}
	return domain.Resolution{}, fmt.Errorf("unknown status %q", rec.Status)
}
