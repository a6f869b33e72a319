package masterdata

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/odyssey-erp/backoffice/internal/apiclient"
	"github.com/odyssey-erp/backoffice/internal/platform/cache"
)

// cachedRemote serves list reads from the versioned cache and bumps the
// version after every successful mutation, so the refetch that follows a
// write never sees the previous list.
type cachedRemote[E any] struct {
	resource *apiclient.Resource[E]
	cache    *cache.Versioned
	scope    string
	logger   *slog.Logger
}

func (r cachedRemote[E]) List(ctx context.Context) ([]E, error) {
	return cache.Fetch(ctx, r.cache, r.scope, r.resource.List, "list")
}

func (r cachedRemote[E]) Create(ctx context.Context, entity E) (E, error) {
	created, err := r.resource.Create(ctx, entity)
	if err == nil {
		r.invalidate(ctx)
	}
	return created, err
}

func (r cachedRemote[E]) Update(ctx context.Context, id string, patch json.RawMessage) (E, error) {
	updated, err := r.resource.Update(ctx, id, patch)
	if err == nil {
		r.invalidate(ctx)
	}
	return updated, err
}

func (r cachedRemote[E]) Delete(ctx context.Context, id string) error {
	err := r.resource.Delete(ctx, id)
	if err == nil {
		r.invalidate(ctx)
	}
	return err
}

func (r cachedRemote[E]) invalidate(ctx context.Context) {
	if err := r.cache.Bump(ctx, r.scope); err != nil {
		r.logger.Warn("list cache bump", slog.String("scope", r.scope), slog.Any("error", err))
	}
}

// cacheScope partitions cached lists per user and entity; roles see
// different rows.
func cacheScope(userID, entity string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return "user:" + userID + ":" + entity
}
