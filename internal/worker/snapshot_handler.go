package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bizcard/internal/database"
	"bizcard/internal/errcode"
	"bizcard/internal/storage"
	"bizcard/internal/tasks"
)

// SnapshotTaskHandler consumes snapshot render tasks. It drives a headless
// browser against the API's internal render page, screenshots the card and
// stores the image in object storage.
type SnapshotTaskHandler struct {
	db             *gorm.DB
	storage        *storage.Client
	redisClient    *redis.Client
	logger         *slog.Logger
	internalSecret string
	renderBaseURL  string
}

func NewSnapshotTaskHandler(
	db *gorm.DB,
	storageClient *storage.Client,
	redisClient *redis.Client,
	logger *slog.Logger,
	internalSecret string,
	renderBaseURL string,
) *SnapshotTaskHandler {
	return &SnapshotTaskHandler{
		db:             db,
		storage:        storageClient,
		redisClient:    redisClient,
		logger:         logger,
		internalSecret: internalSecret,
		renderBaseURL:  strings.TrimRight(strings.TrimSpace(renderBaseURL), "/"),
	}
}

// ProcessTask implements asynq.Handler.
func (h *SnapshotTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.SnapshotRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("card_id", int(payload.CardID)),
	)
	log.Info("starting card snapshot task")

	var card database.BusinessCard
	if err := h.db.WithContext(ctx).First(&card, payload.CardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("card not found, skipping task")
			return nil
		}
		log.Error("query card failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("user_id", uint64(card.UserID)))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}
		notify := SnapshotNotifyMessage{
			Status:        "error",
			CardID:        card.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishSnapshotNotify(ctx, card.UserID, notify); err != nil {
			log.Error("publish snapshot error notification failed", slog.Any("error", err))
		}
	}()

	targetURL, err := h.renderURL(card.ID)
	if err != nil {
		return err
	}

	page, cleanup, err := renderCardPage(log, targetURL)
	if err != nil {
		log.Error("render card page failed", slog.Any("error", err))
		return err
	}
	defer cleanup()

	snapshotBytes, err := captureCardSnapshot(page)
	if err != nil {
		log.Error("capture card snapshot failed", slog.Any("error", err))
		return err
	}

	objectName := fmt.Sprintf("cards/%d/snapshot-%s.png", card.ID, uuid.NewString())
	reader := bytes.NewReader(snapshotBytes)
	if _, err := h.storage.UploadFile(ctx, objectName, reader, int64(len(snapshotBytes)), "image/png"); err != nil {
		log.Error("upload snapshot to minio failed", slog.Any("error", err))
		return err
	}

	previousKey := card.SnapshotKey
	if err := h.db.WithContext(ctx).Model(&card).Update("snapshot_key", objectName).Error; err != nil {
		log.Error("update card snapshot key failed", slog.Any("error", err))
		return err
	}

	if previousKey != "" && previousKey != objectName {
		if err := h.storage.DeleteObject(ctx, previousKey); err != nil {
			log.Warn("delete stale snapshot failed", slog.Any("error", err), slog.String("object_key", previousKey))
		}
	}

	notify := SnapshotNotifyMessage{
		Status:        "completed",
		CardID:        card.ID,
		SnapshotKey:   objectName,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := h.publishSnapshotNotify(ctx, card.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("card snapshot task completed")
	return nil
}

func (h *SnapshotTaskHandler) renderURL(cardID uint) (string, error) {
	if h.renderBaseURL == "" {
		return "", fmt.Errorf("render base url missing")
	}
	if strings.TrimSpace(h.internalSecret) == "" {
		return "", fmt.Errorf("internal secret missing")
	}
	// The token rides on the query string because Chromium loads the page by
	// URL and cannot attach custom headers.
	return fmt.Sprintf(
		"%s/internal/cards/%d/render?internal_token=%s",
		h.renderBaseURL, cardID, url.QueryEscape(h.internalSecret),
	), nil
}

func (h *SnapshotTaskHandler) publishSnapshotNotify(ctx context.Context, userID uint, notify SnapshotNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
