package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type constants, shared between queue producers and consumers.
const (
	TypeViewTrack      = "view:track"
	TypeSnapshotRender = "snapshot:render"
)

// ViewTrackPayload records one public card view for asynchronous analytics.
type ViewTrackPayload struct {
	CardID        uint   `json:"card_id"`
	UserAgent     string `json:"user_agent"`
	Referrer      string `json:"referrer"`
	CorrelationID string `json:"correlation_id"`
}

// NewViewTrackTask builds the analytics task emitted on every public view.
func NewViewTrackTask(cardID uint, userAgent, referrer, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ViewTrackPayload{
		CardID:        cardID,
		UserAgent:     userAgent,
		Referrer:      referrer,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeViewTrack, payload), nil
}

// SnapshotRenderPayload asks the worker to render a card's public page to a
// PNG and store it.
type SnapshotRenderPayload struct {
	CardID        uint   `json:"card_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewSnapshotRenderTask builds a snapshot render task for a card.
func NewSnapshotRenderTask(cardID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(SnapshotRenderPayload{
		CardID:        cardID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSnapshotRender, payload), nil
}
