package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SessionEdge/internal/domain/models"
	domrepo "SessionEdge/internal/domain/repository"
	"SessionEdge/pkg/cache"
)

const (
	latestRunKey = "run:latest"
	runLockKey   = "run:lock"
)

func runKey(id string) string { return "run:" + id }

// CacheResultStore keeps completed runs in a cache.Service for the read API.
type CacheResultStore struct {
	c   cache.Service
	ttl time.Duration
}

// NewCacheResultStore stores runs for ttl; zero keeps them until evicted.
func NewCacheResultStore(c cache.Service, ttl time.Duration) *CacheResultStore {
	return &CacheResultStore{c: c, ttl: ttl}
}

func (s *CacheResultStore) SaveRun(ctx context.Context, r *models.RunResult) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("save run: missing id")
	}
	if err := s.c.Set(ctx, runKey(r.ID), r, s.ttl); err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}
	if err := s.c.Set(ctx, latestRunKey, r.ID, s.ttl); err != nil {
		return fmt.Errorf("save latest run: %w", err)
	}
	return nil
}

func (s *CacheResultStore) LoadRun(ctx context.Context, id string) (*models.RunResult, error) {
	var r models.RunResult
	if err := s.c.Get(ctx, runKey(id), &r); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, fmt.Errorf("run %s: %w", id, domrepo.ErrResultNotFound)
		}
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return &r, nil
}

func (s *CacheResultStore) LatestRunID(ctx context.Context) (string, error) {
	var id string
	if err := s.c.Get(ctx, latestRunKey, &id); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return "", fmt.Errorf("latest run: %w", domrepo.ErrResultNotFound)
		}
		return "", fmt.Errorf("latest run: %w", err)
	}
	return id, nil
}

func (s *CacheResultStore) TryLockRun(ctx context.Context, ttl time.Duration) (bool, error) {
	return s.c.TryLock(ctx, runLockKey, ttl)
}

func (s *CacheResultStore) UnlockRun(ctx context.Context) error {
	return s.c.Unlock(ctx, runLockKey)
}
