package propsync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuchenak/connprops/internal/log"
	"github.com/martinsuchenak/connprops/internal/model"
)

// Setter writes one property of a service
type Setter interface {
	SetProperty(ctx context.Context, serviceID, key string, value any) error
}

// Recorder keeps a history of dispatched requests
type Recorder interface {
	RecordUpdate(rec *model.UpdateRecord) error
}

// Dispatch sends requests one at a time. A failed request is logged and
// reported in its result; later requests are still sent and earlier ones are
// not rolled back. recorder may be nil. Returns the commit ID shared by all
// recorded rows.
func Dispatch(ctx context.Context, setter Setter, serviceID string, requests []model.UpdateRequest, recorder Recorder) (string, []model.UpdateResult) {
	// Once started, a commit runs to the end even if the caller goes away.
	// Each call still carries the property service's own timeout.
	ctx = context.WithoutCancel(ctx)
	commitID := uuid.NewString()
	results := make([]model.UpdateResult, 0, len(requests))

	for _, req := range requests {
		log.Debug("Setting property", "service", serviceID, "section", req.Section, "key", req.Key)

		result := model.UpdateResult{Request: req, OK: true}
		if err := setter.SetProperty(ctx, serviceID, req.Key, req.Value); err != nil {
			log.Error("Failed to set property", "error", err, "service", serviceID, "key", req.Key)
			result.OK = false
			result.Error = err.Error()
		} else {
			log.Info("Property updated", "service", serviceID, "key", req.Key)
		}
		results = append(results, result)

		if recorder != nil {
			record(recorder, commitID, serviceID, result)
		}
	}

	return commitID, results
}

func record(recorder Recorder, commitID, serviceID string, result model.UpdateResult) {
	payload, err := json.Marshal(result.Request.Value)
	if err != nil {
		log.Warn("Failed to encode update payload", "error", err, "key", result.Request.Key)
		payload = []byte("null")
	}

	status := model.UpdateStatusApplied
	if !result.OK {
		status = model.UpdateStatusFailed
	}

	rec := &model.UpdateRecord{
		CommitID:  commitID,
		ServiceID: serviceID,
		Section:   result.Request.Section,
		Key:       result.Request.Key,
		Payload:   string(payload),
		Status:    status,
		Error:     result.Error,
		CreatedAt: time.Now().UTC(),
	}
	if err := recorder.RecordUpdate(rec); err != nil {
		log.Warn("Failed to record update", "error", err, "service", serviceID, "key", result.Request.Key)
	}
}
