package localcart

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/xRWDev/ReTech/internal/domain"
)

const (
	// RecentlyViewedKey is the storage name of recently viewed lists.
	RecentlyViewedKey = "retech-recently-viewed"
	// MaxRecentlyViewed bounds the list length.
	MaxRecentlyViewed = 10
)

// RecentlyViewed tracks the last products a visitor opened, newest first.
type RecentlyViewed struct {
	storage Storage
	locks   *keyedMutex
}

func NewRecentlyViewed(storage Storage) *RecentlyViewed {
	return &RecentlyViewed{storage: storage, locks: newKeyedMutex()}
}

func (r *RecentlyViewed) Add(ctx context.Context, viewerID string, p domain.ProductRef) error {
	unlock := r.locks.lock(viewerID)
	defer unlock()

	list, err := r.List(ctx, viewerID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(pushRecent(list, p))
	if err != nil {
		return err
	}
	return r.storage.Set(ctx, recentKey(viewerID), data)
}

func (r *RecentlyViewed) List(ctx context.Context, viewerID string) ([]domain.ProductRef, error) {
	data, err := r.storage.Get(ctx, recentKey(viewerID))
	if errors.Is(err, ErrMiss) {
		return []domain.ProductRef{}, nil
	}
	if err != nil {
		return nil, err
	}
	var list []domain.ProductRef
	if err := json.Unmarshal(data, &list); err != nil {
		return []domain.ProductRef{}, nil
	}
	return list, nil
}

func pushRecent(list []domain.ProductRef, p domain.ProductRef) []domain.ProductRef {
	out := make([]domain.ProductRef, 0, MaxRecentlyViewed)
	out = append(out, p)
	for _, item := range list {
		if len(out) == MaxRecentlyViewed {
			break
		}
		if item.ID != p.ID {
			out = append(out, item)
		}
	}
	return out
}

func recentKey(viewerID string) string {
	return RecentlyViewedKey + ":" + viewerID
}
