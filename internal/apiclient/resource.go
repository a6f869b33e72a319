package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Resource is a REST collection at path, bound to the caller's tokens. It
// satisfies listctl.Remote.
type Resource[E any] struct {
	client *Client
	tokens TokenStore
	path   string
	query  url.Values
}

// NewResource binds the collection at path (for example "/items").
func NewResource[E any](client *Client, tokens TokenStore, path string) *Resource[E] {
	return &Resource[E]{client: client, tokens: tokens, path: "/" + strings.Trim(path, "/")}
}

// WithQuery returns a copy whose list calls carry q.
func (r *Resource[E]) WithQuery(q url.Values) *Resource[E] {
	cp := *r
	cp.query = q
	return &cp
}

// Path returns the collection path.
func (r *Resource[E]) Path() string {
	return r.path
}

func (r *Resource[E]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// List fetches the whole collection.
func (r *Resource[E]) List(ctx context.Context) ([]E, error) {
	path := r.path
	if len(r.query) > 0 {
		path += "?" + r.query.Encode()
	}
	var items []E
	if err := r.client.Do(ctx, r.tokens, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []E{}
	}
	return items, nil
}

// Get fetches one entity.
func (r *Resource[E]) Get(ctx context.Context, id string) (E, error) {
	var entity E
	err := r.client.Do(ctx, r.tokens, http.MethodGet, r.itemPath(id), nil, &entity)
	return entity, err
}

// Create posts entity and returns the stored version.
func (r *Resource[E]) Create(ctx context.Context, entity E) (E, error) {
	var created E
	err := r.client.Do(ctx, r.tokens, http.MethodPost, r.path, entity, &created)
	return created, err
}

// Update sends a partial payload and returns the stored version.
func (r *Resource[E]) Update(ctx context.Context, id string, patch json.RawMessage) (E, error) {
	var updated E
	err := r.client.Do(ctx, r.tokens, http.MethodPatch, r.itemPath(id), patch, &updated)
	return updated, err
}

// Delete removes the entity.
func (r *Resource[E]) Delete(ctx context.Context, id string) error {
	return r.client.Do(ctx, r.tokens, http.MethodDelete, r.itemPath(id), nil, nil)
}
