package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"bizcard/internal/database"
	"bizcard/internal/tasks"
)

// ViewTrackHandler consumes view tracking tasks emitted by the public card
// endpoint. Each task bumps the card's counter and records one analytics row.
type ViewTrackHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewViewTrackHandler(db *gorm.DB, logger *slog.Logger) *ViewTrackHandler {
	return &ViewTrackHandler{db: db, logger: logger}
}

// ProcessTask implements asynq.Handler.
func (h *ViewTrackHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.ViewTrackPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal view track payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("card_id", int(payload.CardID)),
	)

	result := h.db.WithContext(ctx).
		Model(&database.BusinessCard{}).
		Where("id = ?", payload.CardID).
		Update("view_count", gorm.Expr("view_count + 1"))
	if result.Error != nil {
		log.Error("increment view count failed", slog.Any("error", result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Card deleted between the public view and this task.
		log.Warn("card not found, dropping view")
		return nil
	}

	row := database.CardAnalytics{
		BusinessCardID: payload.CardID,
		ViewedAt:       time.Now().UTC(),
		UserAgent:      payload.UserAgent,
		Referrer:       payload.Referrer,
		DeviceClass:    ClassifyDevice(payload.UserAgent),
	}
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Error("insert analytics row failed", slog.Any("error", err))
		return err
	}

	return nil
}

var mobileMarkers = []string{"Mobile", "Android", "iPhone", "iPad"}

// ClassifyDevice buckets a user agent into "mobile" or "desktop".
func ClassifyDevice(userAgent string) string {
	for _, marker := range mobileMarkers {
		if strings.Contains(userAgent, marker) {
			return "mobile"
		}
	}
	return "desktop"
}
