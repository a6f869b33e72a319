package listctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Remote is the REST collaborator backing a controller.
type Remote[E any] interface {
	List(ctx context.Context) ([]E, error)
	Create(ctx context.Context, entity E) (E, error)
	Update(ctx context.Context, id string, patch json.RawMessage) (E, error)
	Delete(ctx context.Context, id string) error
}

// Option customises a Controller.
type Option[E any] func(*Controller[E])

// WithRemote backs the controller with a remote collaborator.
func WithRemote[E any](remote Remote[E]) Option[E] {
	return func(c *Controller[E]) { c.remote = remote }
}

// WithItems seeds the collection.
func WithItems[E any](items []E) Option[E] {
	return func(c *Controller[E]) { c.items = slices.Clone(items) }
}

// WithLogger sets the logger used for reconciliation warnings.
func WithLogger[E any](logger *slog.Logger) Option[E] {
	return func(c *Controller[E]) { c.logger = logger }
}

// WithLocale selects the collation used for string sorting.
func WithLocale[E any](tag language.Tag) Option[E] {
	return func(c *Controller[E]) { c.locale = tag }
}

// Controller owns a collection and its filter, sort, pagination, column and
// dialog state. Methods are safe for concurrent use; the lock is released
// while a remote call is in flight.
type Controller[E any] struct {
	mu sync.Mutex

	cfg     Config[E]
	remote  Remote[E]
	logger  *slog.Logger
	locale  language.Tag
	match   *matcher[E]
	sorting *sorter[E]

	items      []E
	filter     string
	sortColumn string
	sortDir    Direction
	pageSize   int
	page       int
	columns    map[string]bool
	editingID  string
	dialogs    Dialogs
	loaded     bool
	closed     bool
}

// New builds a controller for cfg.
func New[E any](cfg Config[E], opts ...Option[E]) (*Controller[E], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if !slices.Contains(cfg.PageSizes, cfg.DefaultPageSize) {
		return nil, fmt.Errorf("%w: default %d", ErrInvalidPageSize, cfg.DefaultPageSize)
	}
	c := &Controller[E]{
		cfg:      cfg,
		locale:   language.English,
		pageSize: cfg.DefaultPageSize,
		page:     1,
		columns:  make(map[string]bool, len(cfg.Fields)),
		dialogs:  closedDialogs(),
	}
	for _, f := range cfg.Fields {
		c.columns[f.Key] = true
	}
	for _, opt := range opts {
		opt(c)
	}
	c.loaded = c.remote == nil
	c.match = newMatcher(cfg)
	c.sorting = &sorter[E]{collator: collate.New(c.locale)}
	return c, nil
}

// Config returns the controller configuration.
func (c *Controller[E]) Config() Config[E] {
	return c.cfg
}

// Remote reports whether the controller is backed by a remote collaborator.
func (c *Controller[E]) Remote() bool {
	return c.remote != nil
}

// Close marks the owner as gone. Results of in-flight remote calls are
// discarded afterwards.
func (c *Controller[E]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Load replaces the collection with the remote list.
func (c *Controller[E]) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	remote := c.remote
	c.mu.Unlock()
	if remote == nil {
		return ErrNoRemote
	}

	items, err := remote.List(ctx)
	if err != nil {
		return fmt.Errorf("listctl: load %s: %w", c.cfg.Entity, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.items = items
	c.loaded = true
	c.reconcile()
	return nil
}

// SetFilter replaces the filter and returns to the first page.
func (c *Controller[E]) SetFilter(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = text
	c.page = 1
}

// Sort selects a column or advances its direction asc → desc → none.
func (c *Controller[E]) Sort(column string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.cfg.Field(column); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	if column != c.sortColumn {
		c.sortColumn = column
		c.sortDir = SortAsc
		return nil
	}
	c.sortDir = c.sortDir.next()
	if c.sortDir == SortNone {
		c.sortColumn = ""
	}
	return nil
}

// SetPage moves to page n, clamped to the available pages.
func (c *Controller[E]) SetPage(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = ClampPage(n, c.filteredCount(), c.pageSize)
	return c.page
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller[E]) SetPageSize(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.Contains(c.cfg.PageSizes, n) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	c.pageSize = n
	c.page = 1
	return nil
}

// SetColumnVisible toggles a column.
func (c *Controller[E]) SetColumnVisible(column string, visible bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.columns[column]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	c.columns[column] = visible
	return nil
}

// OpenAdd opens the add dialog.
func (c *Controller[E]) OpenAdd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialogs.open(DialogAdd)
}

// OpenEdit targets the entity with id and opens the edit dialog.
func (c *Controller[E]) OpenEdit(id string) error {
	return c.openTargeted(DialogEdit, id)
}

// OpenDelete targets the entity with id and opens the delete dialog.
func (c *Controller[E]) OpenDelete(id string) error {
	return c.openTargeted(DialogDelete, id)
}

func (c *Controller[E]) openTargeted(kind DialogKind, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.editingID = id
	c.dialogs.open(kind)
	return nil
}

// CloseDialog closes a dialog; closing edit or delete clears the target.
func (c *Controller[E]) CloseDialog(kind DialogKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialogs.close(kind)
	if kind != DialogAdd {
		c.editingID = ""
	}
}

// Add creates an entity. Local controllers assign the identity; remote ones
// take it from the server. On failure the add dialog stays open.
func (c *Controller[E]) Add(ctx context.Context, entity E) (E, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		var zero E
		return zero, ErrClosed
	}
	if c.remote == nil {
		defer c.mu.Unlock()
		created, err := c.addLocal(entity)
		if err != nil {
			c.dialogs.fail(DialogAdd, err)
			return created, err
		}
		c.dialogs.close(DialogAdd)
		return created, nil
	}
	remote := c.remote
	c.dialogs.submitting(DialogAdd)
	c.mu.Unlock()

	created, err := remote.Create(ctx, entity)
	var fresh []E
	if err == nil {
		fresh = c.refetch(ctx, remote)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return created, ErrClosed
	}
	if err != nil {
		c.dialogs.fail(DialogAdd, err)
		return created, err
	}
	if fresh != nil {
		c.items = fresh
	} else {
		c.items = append(c.items, created)
	}
	c.dialogs.close(DialogAdd)
	c.reconcile()
	return created, nil
}

func (c *Controller[E]) addLocal(entity E) (E, error) {
	if c.cfg.NextID != nil && c.cfg.WithID != nil {
		ids := make([]string, len(c.items))
		for i, item := range c.items {
			ids[i] = c.cfg.ID(item)
		}
		withID, err := c.cfg.WithID(entity, c.cfg.NextID(ids))
		if err != nil {
			return entity, err
		}
		entity = withID
	}
	id := c.cfg.ID(entity)
	if id == "" {
		return entity, errors.New("listctl: entity has no identity")
	}
	if c.indexOf(id) >= 0 {
		return entity, fmt.Errorf("listctl: duplicate identity %s", id)
	}
	if c.cfg.Stamp != nil {
		entity = c.cfg.Stamp(entity, c.cfg.Now())
	}
	c.items = append(c.items, entity)
	c.reconcile()
	return entity, nil
}

// Edit shallow-merges patch into the editing entity. Without an editing
// entity it is a no-op returning ErrNothingSelected.
func (c *Controller[E]) Edit(ctx context.Context, patch json.RawMessage) (E, error) {
	var zero E
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	id := c.editingID
	if id == "" {
		c.mu.Unlock()
		return zero, ErrNothingSelected
	}
	if c.remote == nil {
		defer c.mu.Unlock()
		updated, err := c.editLocal(id, patch)
		if err != nil {
			c.dialogs.fail(DialogEdit, err)
			return updated, err
		}
		c.dialogs.close(DialogEdit)
		c.editingID = ""
		return updated, nil
	}
	remote := c.remote
	c.dialogs.submitting(DialogEdit)
	c.mu.Unlock()

	updated, err := remote.Update(ctx, id, patch)
	var fresh []E
	if err == nil {
		fresh = c.refetch(ctx, remote)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return updated, ErrClosed
	}
	if err != nil {
		c.dialogs.fail(DialogEdit, err)
		return updated, err
	}
	if fresh != nil {
		c.items = fresh
	} else if idx := c.indexOf(id); idx >= 0 {
		c.items[idx] = updated
	}
	c.dialogs.close(DialogEdit)
	if c.editingID == id {
		c.editingID = ""
	}
	c.reconcile()
	return updated, nil
}

func (c *Controller[E]) editLocal(id string, patch json.RawMessage) (E, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		var zero E
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	merged, err := MergeJSON(c.items[idx], patch)
	if err != nil {
		return c.items[idx], err
	}
	if c.cfg.ID(merged) != id {
		if c.cfg.WithID == nil {
			return c.items[idx], errors.New("listctl: identity is immutable")
		}
		if merged, err = c.cfg.WithID(merged, id); err != nil {
			return c.items[idx], err
		}
	}
	if c.cfg.Touch != nil {
		merged = c.cfg.Touch(merged, c.cfg.Now())
	}
	c.items[idx] = merged
	return merged, nil
}

// Remove deletes the editing entity. Without an editing entity it is a
// no-op returning ErrNothingSelected.
func (c *Controller[E]) Remove(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	id := c.editingID
	if id == "" {
		c.mu.Unlock()
		return ErrNothingSelected
	}
	if c.remote == nil {
		defer c.mu.Unlock()
		c.removeLocal(id)
		c.dialogs.close(DialogDelete)
		c.editingID = ""
		c.reconcile()
		return nil
	}
	remote := c.remote
	c.dialogs.submitting(DialogDelete)
	c.mu.Unlock()

	err := remote.Delete(ctx, id)
	var fresh []E
	if err == nil {
		fresh = c.refetch(ctx, remote)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		c.dialogs.fail(DialogDelete, err)
		return err
	}
	if fresh != nil {
		c.items = fresh
	} else {
		c.removeLocal(id)
	}
	c.dialogs.close(DialogDelete)
	if c.editingID == id {
		c.editingID = ""
	}
	c.reconcile()
	return nil
}

func (c *Controller[E]) removeLocal(id string) {
	c.items = slices.DeleteFunc(c.items, func(item E) bool {
		return c.cfg.ID(item) == id
	})
}

// refetch reloads the collection after a successful mutation when the
// strategy asks for it. A failed refetch falls back to a local patch.
func (c *Controller[E]) refetch(ctx context.Context, remote Remote[E]) []E {
	if c.cfg.Strategy != StrategyRefetch {
		return nil
	}
	items, err := remote.List(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("refetch after mutation", slog.String("entity", c.cfg.Entity), slog.Any("error", err))
		}
		return nil
	}
	if items == nil {
		items = []E{}
	}
	return items
}

// View returns the current page. A page beyond the last page is clamped.
func (c *Controller[E]) View() View[E] {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := c.visibleRows()
	pag := NewPagination(c.page, c.pageSize, len(rows))
	c.page = pag.Page

	view := View[E]{
		Items:         slices.Clone(Slice(rows, pag.Page, pag.PageSize)),
		Total:         len(c.items),
		Filtered:      len(rows),
		Pagination:    pag,
		PageSizes:     slices.Clone(c.cfg.PageSizes),
		Filter:        c.filter,
		SortColumn:    c.sortColumn,
		SortDirection: c.sortDir,
		Columns:       c.columnStates(),
		Dialogs:       c.dialogs,
	}
	if idx := c.indexOf(c.editingID); idx >= 0 {
		editing := c.items[idx]
		view.Editing = &editing
	}
	return view
}

// Filtered returns every row matching the filter in sort order.
func (c *Controller[E]) Filtered() []E {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleRows()
}

// Items returns the whole collection in insertion order.
func (c *Controller[E]) Items() []E {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Editing returns the entity targeted by the edit or delete dialog.
func (c *Controller[E]) Editing() (E, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexOf(c.editingID); idx >= 0 {
		return c.items[idx], true
	}
	var zero E
	return zero, false
}

// State snapshots the UI state.
func (c *Controller[E]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	columns := make(map[string]bool, len(c.columns))
	for k, v := range c.columns {
		columns[k] = v
	}
	return State{
		Filter:        c.filter,
		SortColumn:    c.sortColumn,
		SortDirection: c.sortDir,
		Page:          c.page,
		PageSize:      c.pageSize,
		Columns:       columns,
		EditingID:     c.editingID,
		Dialogs:       c.dialogs,
	}
}

// Restore applies a previously captured state, dropping values that no
// longer fit the config.
func (c *Controller[E]) Restore(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = s.Filter
	c.sortColumn, c.sortDir = "", SortNone
	if _, ok := c.cfg.Field(s.SortColumn); ok && (s.SortDirection == SortAsc || s.SortDirection == SortDesc) {
		c.sortColumn, c.sortDir = s.SortColumn, s.SortDirection
	}
	c.pageSize = c.cfg.DefaultPageSize
	if slices.Contains(c.cfg.PageSizes, s.PageSize) {
		c.pageSize = s.PageSize
	}
	c.page = s.Page
	for k, v := range s.Columns {
		if _, ok := c.columns[k]; ok {
			c.columns[k] = v
		}
	}
	c.editingID = s.EditingID
	c.dialogs = s.Dialogs
	c.dialogs.normalise()
	c.reconcile()
}

// reconcile drops a stale editing target and re-clamps the page. It waits
// for the first load of a remote-backed collection.
func (c *Controller[E]) reconcile() {
	if !c.loaded {
		return
	}
	if c.editingID != "" && c.indexOf(c.editingID) < 0 {
		c.editingID = ""
		c.dialogs.close(DialogEdit)
		c.dialogs.close(DialogDelete)
	}
	c.page = ClampPage(c.page, c.filteredCount(), c.pageSize)
}

func (c *Controller[E]) visibleRows() []E {
	rows := c.match.filter(c.items, c.filter)
	if c.sortColumn == "" || c.sortDir == SortNone {
		return rows
	}
	field, ok := c.cfg.Field(c.sortColumn)
	if !ok {
		return rows
	}
	return c.sorting.sortRows(rows, field, c.sortDir)
}

func (c *Controller[E]) filteredCount() int {
	if c.filter == "" {
		return len(c.items)
	}
	return len(c.match.filter(c.items, c.filter))
}

func (c *Controller[E]) columnStates() []ColumnState {
	out := make([]ColumnState, 0, len(c.cfg.Fields))
	for _, f := range c.cfg.Fields {
		out = append(out, ColumnState{Key: f.Key, Label: f.Label, Visible: c.columns[f.Key]})
	}
	return out
}

func (c *Controller[E]) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(c.items, func(item E) bool {
		return c.cfg.ID(item) == id
	})
}
