package shared

import "time"

// Audit holds the creation and modification stamps carried by every entity.
type Audit struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stamp sets both stamps to at.
func (a Audit) Stamp(at time.Time) Audit {
	return Audit{CreatedAt: at, UpdatedAt: at}
}

// Touch refreshes UpdatedAt.
func (a Audit) Touch(at time.Time) Audit {
	a.UpdatedAt = at
	return a
}
