package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskListExport renders a list export in the background.
	TaskListExport = "list:export"
)

// ListExportPayload captures everything the worker needs to rebuild the
// list a user was looking at when the export was requested.
type ListExportPayload struct {
	ExportID  string          `json:"export_id"`
	Entity    string          `json:"entity"`
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id"`
	State     json.RawMessage `json:"state"`
	Format    string          `json:"format"`
	Locale    string          `json:"locale"`
}

// NewListExportTask constructs an Asynq task.
func NewListExportTask(payload ListExportPayload) (*asynq.Task, error) {
	if payload.ExportID == "" || payload.Entity == "" || payload.SessionID == "" {
		return nil, errors.New("jobs: list export requires export id, entity and session")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskListExport, data, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}

// DecodeListExport reads the payload of a TaskListExport task. Malformed
// payloads are never retried.
func DecodeListExport(t *asynq.Task) (ListExportPayload, error) {
	var payload ListExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, errors.Join(err, asynq.SkipRetry)
	}
	if payload.ExportID == "" || payload.Entity == "" || payload.SessionID == "" {
		return payload, asynq.SkipRetry
	}
	return payload, nil
}

// EnqueueListExport enqueues a list export.
func (c *Client) EnqueueListExport(ctx context.Context, payload ListExportPayload) (*asynq.TaskInfo, error) {
	task, err := NewListExportTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.TaskID(payload.ExportID))
}
