package listctl

// State is the serialisable UI state of a controller. Items are not part of
// the state; they are reloaded from the source.
type State struct {
	Filter        string          `json:"filter,omitempty"`
	SortColumn    string          `json:"sort_column,omitempty"`
	SortDirection Direction       `json:"sort_direction,omitempty"`
	Page          int             `json:"page"`
	PageSize      int             `json:"page_size"`
	Columns       map[string]bool `json:"columns,omitempty"`
	EditingID     string          `json:"editing_id,omitempty"`
	Dialogs       Dialogs         `json:"dialogs"`
}

// ColumnState reports visibility for one column.
type ColumnState struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
}

// View is the filtered, sorted and paginated projection of a controller.
type View[E any] struct {
	Items         []E           `json:"items"`
	Total         int           `json:"total"`
	Filtered      int           `json:"filtered"`
	Pagination    Pagination    `json:"pagination"`
	PageSizes     []int         `json:"page_sizes"`
	Filter        string        `json:"filter"`
	SortColumn    string        `json:"sort_column,omitempty"`
	SortDirection Direction     `json:"sort_direction,omitempty"`
	Columns       []ColumnState `json:"columns"`
	Editing       *E            `json:"editing,omitempty"`
	Dialogs       Dialogs       `json:"dialogs"`
}
