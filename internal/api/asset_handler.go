package api

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"bizcard/internal/database"
	"bizcard/internal/storage"
)

// AssetHandler serves image uploads (avatars, product and gallery images)
// and presigned access to them.
type AssetHandler struct {
	DB           *gorm.DB
	Storage      *storage.Client
	Logger       *slog.Logger
	ClamdAddr   string
	ScanEnabled bool
}

// NewAssetHandler builds the asset handler.
func NewAssetHandler(db *gorm.DB, storageClient *storage.Client, logger *slog.Logger, clamdAddr string, scanEnabled bool) *AssetHandler {
	return &AssetHandler{
		DB:          db,
		Storage:     storageClient,
		Logger:      logger,
		ClamdAddr:   clamdAddr,
		ScanEnabled: scanEnabled,
	}
}

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// UploadAsset accepts an image upload, scans it, and stores it under the
// user's prefix. The object key comes back for the editor to reference.
func (h *AssetHandler) UploadAsset(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	contentType := file.Header.Get("Content-Type")
	extension, ok := imageExtensions[contentType]
	if !ok {
		BadRequest(c, "unsupported content type")
		return
	}

	if h.ScanEnabled {
		if err := h.scanUpload(file); err != nil {
			if strings.Contains(err.Error(), "malicious") {
				BadRequest(c, "malicious file detected")
				return
			}
			h.Logger.Error("scan file", slog.String("error", err.Error()))
			Internal(c, "failed to scan file")
			return
		}
	}

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer fileReader.Close()

	objectKey := fmt.Sprintf("user-assets/%d/%s%s", userID, uuid.NewString(), extension)

	if _, err := h.Storage.UploadFile(c.Request.Context(), objectKey, fileReader, file.Size, contentType); err != nil {
		h.Logger.Error("upload file", slog.String("error", err.Error()))
		Internal(c, "failed to upload file")
		return
	}

	record := database.Asset{
		UserID:      userID,
		ObjectKey:   objectKey,
		ContentType: contentType,
		Size:        file.Size,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&record).Error; err != nil {
		h.Logger.Error("record asset", slog.String("error", err.Error()))
	}

	c.JSON(http.StatusCreated, gin.H{"objectKey": objectKey})
}

func (h *AssetHandler) scanUpload(file *multipart.FileHeader) error {
	clamdClient := clamd.NewClamd(h.ClamdAddr)

	fileReader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}

	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
	fileReader.Close()
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return fmt.Errorf("malicious file detected: %s", result.Description)
		}
	}
	return nil
}

// ListAssets lists the user's uploads, newest first, with preview links.
func (h *AssetHandler) ListAssets(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	limitStr := c.DefaultQuery("limit", "60")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 60
	}
	if limit > 200 {
		limit = 200
	}

	prefix := fmt.Sprintf("user-assets/%d/", userID)
	objects, err := h.Storage.ListObjects(c.Request.Context(), prefix, limit)
	if err != nil {
		h.Logger.Error("list assets", slog.String("error", err.Error()))
		Internal(c, "failed to list assets")
		return
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})

	items := make([]gin.H, 0, len(objects))
	for _, obj := range objects {
		url, err := h.Storage.GeneratePresignedURL(c.Request.Context(), obj.Key, 10*time.Minute)
		if err != nil {
			h.Logger.Error("generate asset url", slog.String("objectKey", obj.Key), slog.String("error", err.Error()))
			continue
		}
		items = append(items, gin.H{
			"objectKey":    obj.Key,
			"previewUrl":   url,
			"size":         obj.Size,
			"lastModified": obj.LastModified,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetAssetURL returns a short-lived presigned URL for one of the user's own
// objects.
func (h *AssetHandler) GetAssetURL(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	objectKey := c.Query("key")
	if objectKey == "" {
		BadRequest(c, "missing key")
		return
	}

	if !isValidUserAssetObjectKey(userID, objectKey) {
		Forbidden(c, "access denied")
		return
	}

	signedURL, err := h.Storage.GeneratePresignedURL(c.Request.Context(), objectKey, 15*time.Minute)
	if err != nil {
		h.Logger.Error("generate presigned url", slog.String("error", err.Error()))
		Internal(c, "failed to generate url")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

// DeleteAsset removes one of the user's uploads from storage and the asset
// ledger.
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	objectKey := c.Query("key")
	if objectKey == "" {
		BadRequest(c, "missing key")
		return
	}
	if !isValidUserAssetObjectKey(userID, objectKey) {
		Forbidden(c, "access denied")
		return
	}

	ctx := c.Request.Context()
	if err := h.Storage.DeleteObject(ctx, objectKey); err != nil {
		h.Logger.Error("delete asset", slog.String("objectKey", objectKey), slog.String("error", err.Error()))
		Internal(c, "failed to delete asset")
		return
	}
	if err := h.DB.WithContext(ctx).
		Where("user_id = ? AND object_key = ?", userID, objectKey).
		Delete(&database.Asset{}).Error; err != nil {
		h.Logger.Error("delete asset record", slog.String("error", err.Error()))
	}

	c.Status(http.StatusNoContent)
}
