package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bizcard/internal/api/middleware"
	"bizcard/internal/database"
	"bizcard/internal/storage"
	"bizcard/internal/tasks"
)

// CardHandler serves the authenticated card editing API.
type CardHandler struct {
	db            *gorm.DB
	asynqClient   *asynq.Client
	storage       *storage.Client
	maxCards      int
	publicBaseURL string
}

// NewCardHandler builds the card handler. maxCards of zero means unlimited.
func NewCardHandler(db *gorm.DB, asynqClient *asynq.Client, storageClient *storage.Client, maxCards int, publicBaseURL string) *CardHandler {
	return &CardHandler{
		db:            db,
		asynqClient:   asynqClient,
		storage:       storageClient,
		maxCards:      maxCards,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

// shareURL is the public link of a card, empty when no public origin is
// configured.
func (h *CardHandler) shareURL(slug string) string {
	if h.publicBaseURL == "" {
		return ""
	}
	return h.publicBaseURL + "/c/" + slug
}

var errInvalidCardID = errors.New("invalid card id")

type cardRequest struct {
	Title    string `json:"title" binding:"required,max=255"`
	Company  string `json:"company" binding:"max=255"`
	Position string `json:"position" binding:"max=255"`
	Bio      string `json:"bio"`

	Email    string `json:"email" binding:"max=255"`
	Phone    string `json:"phone" binding:"max=64"`
	WhatsApp string `json:"whatsapp" binding:"max=64"`
	Website  string `json:"website" binding:"max=512"`
	Address  string `json:"address" binding:"max=512"`
	MapLink  string `json:"map_link" binding:"max=512"`

	AvatarURL string         `json:"avatar_url" binding:"max=512"`
	Theme     datatypes.JSON `json:"theme"`
	Layout    datatypes.JSON `json:"layout"`
	Shape     string         `json:"shape" binding:"max=32"`

	Slug *string `json:"slug"`
}

type cardListItem struct {
	ID          uint      `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Company     string    `json:"company,omitempty"`
	IsPublished bool      `json:"is_published"`
	ViewCount   int64     `json:"view_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type cardResponse struct {
	ID          uint           `json:"id"`
	Slug        string         `json:"slug"`
	ShareURL    string         `json:"share_url,omitempty"`
	Title       string         `json:"title"`
	Company     string         `json:"company,omitempty"`
	Position    string         `json:"position,omitempty"`
	Bio         string         `json:"bio,omitempty"`
	Email       string         `json:"email,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	WhatsApp    string         `json:"whatsapp,omitempty"`
	Website     string         `json:"website,omitempty"`
	Address     string         `json:"address,omitempty"`
	MapLink     string         `json:"map_link,omitempty"`
	AvatarURL   string         `json:"avatar_url,omitempty"`
	Theme       datatypes.JSON `json:"theme,omitempty"`
	Layout      datatypes.JSON `json:"layout,omitempty"`
	Shape       string         `json:"shape,omitempty"`
	IsPublished bool           `json:"is_published"`
	ViewCount   int64          `json:"view_count"`
	SnapshotKey string         `json:"snapshot_key,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	SocialLinks []database.SocialLink     `json:"social_links,omitempty"`
	MediaItems  []database.MediaItem      `json:"media_items,omitempty"`
	Products    []database.ProductService `json:"products,omitempty"`
	ReviewLinks []database.ReviewLink     `json:"review_links,omitempty"`
}

// CreateCard stores a new card for the user, enforcing the per-user limit.
func (h *CardHandler) CreateCard(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var count int64
	if err := h.db.WithContext(ctx).
		Model(&database.BusinessCard{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		Internal(c, "failed to count cards")
		return
	}

	if h.maxCards > 0 && count >= int64(h.maxCards) {
		Forbidden(c, "card limit reached")
		return
	}

	slug, err := h.resolveSlug(ctx, req.Slug, req.Title, 0)
	if err != nil {
		if errors.Is(err, errSlugTaken) {
			Conflict(c, "slug already taken")
			return
		}
		Internal(c, "failed to resolve slug")
		return
	}

	card := database.BusinessCard{UserID: userID, Slug: slug}
	applyCardRequest(&card, req)

	if err := h.db.WithContext(ctx).Create(&card).Error; err != nil {
		Internal(c, "failed to create card")
		return
	}

	c.JSON(http.StatusCreated, h.newCardResponse(card))
}

// ListCards lists the user's cards, newest first.
func (h *CardHandler) ListCards(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	var cards []database.BusinessCard
	if err := h.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&cards).Error; err != nil {
		Internal(c, "failed to list cards")
		return
	}

	items := make([]cardListItem, 0, len(cards))
	for _, card := range cards {
		items = append(items, cardListItem{
			ID:          card.ID,
			Slug:        card.Slug,
			Title:       card.Title,
			Company:     card.Company,
			IsPublished: card.IsPublished,
			ViewCount:   card.ViewCount,
			CreatedAt:   card.CreatedAt,
			UpdatedAt:   card.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetCard returns one card with all its sections for editing.
func (h *CardHandler) GetCard(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	card, err := h.getCardForUser(c.Request.Context(), c.Param("id"), userID, true)
	if err != nil {
		h.respondCardLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.newCardResponse(*card))
}

// UpdateCard overwrites the card's own fields. Section rows have their own
// endpoints and are untouched here.
func (h *CardHandler) UpdateCard(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	card, err := h.getCardForUser(ctx, c.Param("id"), userID, false)
	if err != nil {
		h.respondCardLookupError(c, err)
		return
	}

	if req.Slug != nil && *req.Slug != card.Slug {
		slug, err := h.resolveSlug(ctx, req.Slug, req.Title, card.ID)
		if err != nil {
			if errors.Is(err, errSlugTaken) {
				Conflict(c, "slug already taken")
				return
			}
			Internal(c, "failed to resolve slug")
			return
		}
		card.Slug = slug
	}

	applyCardRequest(card, req)

	if err := h.db.WithContext(ctx).Save(card).Error; err != nil {
		Internal(c, "failed to update card")
		return
	}

	if card.IsPublished {
		h.enqueueSnapshot(c, card.ID)
	}

	c.JSON(http.StatusOK, h.newCardResponse(*card))
}

// DeleteCard removes the card; its stored objects are cleaned up best-effort.
func (h *CardHandler) DeleteCard(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	card, err := h.getCardForUser(ctx, c.Param("id"), userID, false)
	if err != nil {
		h.respondCardLookupError(c, err)
		return
	}

	if err := h.db.WithContext(ctx).Select(
		"SocialLinks", "MediaItems", "Products", "ReviewLinks",
	).Delete(card).Error; err != nil {
		Internal(c, "failed to delete card")
		return
	}

	if h.storage != nil {
		prefix := fmt.Sprintf("cards/%d/", card.ID)
		if err := h.storage.DeletePrefix(ctx, prefix); err != nil {
			middleware.LoggerFromContext(c).Warn("cleanup card objects failed",
				"card_id", card.ID, "error", err)
		}
	}

	c.Status(http.StatusNoContent)
}

type publishRequest struct {
	Published bool `json:"published"`
}

// SetPublished flips the card's published flag. Publishing also queues a
// fresh snapshot render.
func (h *CardHandler) SetPublished(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	card, err := h.getCardForUser(ctx, c.Param("id"), userID, false)
	if err != nil {
		h.respondCardLookupError(c, err)
		return
	}

	if err := h.db.WithContext(ctx).Model(card).
		Update("is_published", req.Published).Error; err != nil {
		Internal(c, "failed to update card")
		return
	}
	card.IsPublished = req.Published

	if req.Published {
		h.enqueueSnapshot(c, card.ID)
	}

	c.JSON(http.StatusOK, h.newCardResponse(*card))
}

// DuplicateCard deep-copies a card with all its sections. The copy starts
// unpublished with a fresh slug and a zero view count.
func (h *CardHandler) DuplicateCard(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	if h.maxCards > 0 {
		var count int64
		if err := h.db.WithContext(ctx).
			Model(&database.BusinessCard{}).
			Where("user_id = ?", userID).
			Count(&count).Error; err != nil {
			Internal(c, "failed to count cards")
			return
		}
		if count >= int64(h.maxCards) {
			Forbidden(c, "card limit reached")
			return
		}
	}

	source, err := h.getCardForUser(ctx, c.Param("id"), userID, true)
	if err != nil {
		h.respondCardLookupError(c, err)
		return
	}

	copySlug, err := h.resolveSlug(ctx, nil, source.Slug+"-copy", 0)
	if err != nil {
		Internal(c, "failed to resolve slug")
		return
	}

	clone := *source
	clone.Model = gorm.Model{}
	clone.Slug = copySlug
	clone.Title = source.Title + " (copy)"
	clone.IsPublished = false
	clone.ViewCount = 0
	clone.SnapshotKey = ""
	clone.SocialLinks = cloneSocialLinks(source.SocialLinks)
	clone.MediaItems = cloneMediaItems(source.MediaItems)
	clone.Products = cloneProducts(source.Products)
	clone.ReviewLinks = cloneReviewLinks(source.ReviewLinks)

	if err := h.db.WithContext(ctx).Create(&clone).Error; err != nil {
		Internal(c, "failed to duplicate card")
		return
	}

	c.JSON(http.StatusCreated, h.newCardResponse(clone))
}

// RequestSnapshot queues a snapshot render and returns 202 immediately.
func (h *CardHandler) RequestSnapshot(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	card, err := h.getCardForUser(c.Request.Context(), c.Param("id"), userID, false)
	if err != nil {
		h.respondCardLookupError(c, err)
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewSnapshotRenderTask(card.ID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue snapshot render")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "snapshot render request accepted",
		"task_id": info.ID,
	})
}

// GetSnapshotLink returns a presigned download link for the rendered PNG.
func (h *CardHandler) GetSnapshotLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	card, err := h.getCardForUser(c.Request.Context(), c.Param("id"), userID, false)
	if err != nil {
		h.respondCardLookupError(c, err)
		return
	}

	if card.SnapshotKey == "" {
		Conflict(c, "snapshot not ready")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), card.SnapshotKey, 5*time.Minute)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

func (h *CardHandler) enqueueSnapshot(c *gin.Context, cardID uint) {
	task, err := tasks.NewSnapshotRenderTask(cardID, middleware.GetCorrelationID(c))
	if err != nil {
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5)); err != nil {
		middleware.LoggerFromContext(c).Warn("enqueue snapshot render failed",
			"card_id", cardID, "error", err)
	}
}

func (h *CardHandler) respondCardLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidCardID):
		BadRequest(c, "invalid card id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "card not found")
	default:
		Internal(c, "failed to query card")
	}
}

func (h *CardHandler) getCardForUser(ctx context.Context, idParam string, userID uint, withSections bool) (*database.BusinessCard, error) {
	cardID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidCardID
	}

	query := h.db.WithContext(ctx)
	if withSections {
		query = query.
			Preload("SocialLinks", orderByDisplayOrder).
			Preload("MediaItems", orderByDisplayOrder).
			Preload("Products", orderByDisplayOrder).
			Preload("Products.Images", orderByDisplayOrder).
			Preload("Products.Inquiries").
			Preload("ReviewLinks", orderByDisplayOrder)
	}

	var card database.BusinessCard
	if err := query.
		Where("id = ? AND user_id = ?", uint(cardID), userID).
		First(&card).Error; err != nil {
		return nil, err
	}

	return &card, nil
}

func orderByDisplayOrder(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC, id ASC")
}

var errSlugTaken = errors.New("slug already taken")

// resolveSlug picks the card's public slug. An explicit slug must be free;
// a derived one gets a random suffix appended until it is.
func (h *CardHandler) resolveSlug(ctx context.Context, requested *string, title string, selfID uint) (string, error) {
	if requested != nil && strings.TrimSpace(*requested) != "" {
		slug := slugify(*requested)
		if slug == "" {
			return "", errSlugTaken
		}
		free, err := h.slugFree(ctx, slug, selfID)
		if err != nil {
			return "", err
		}
		if !free {
			return "", errSlugTaken
		}
		return slug, nil
	}

	base := slugify(title)
	if base == "" {
		base = "card"
	}

	slug := base
	for attempt := 0; attempt < 5; attempt++ {
		free, err := h.slugFree(ctx, slug, selfID)
		if err != nil {
			return "", err
		}
		if free {
			return slug, nil
		}
		slug = base + "-" + uuid.NewString()[:8]
	}
	return "", fmt.Errorf("could not find a free slug for %q", base)
}

func (h *CardHandler) slugFree(ctx context.Context, slug string, selfID uint) (bool, error) {
	var count int64
	query := h.db.WithContext(ctx).
		Model(&database.BusinessCard{}).
		Where("slug = ?", slug)
	if selfID != 0 {
		query = query.Where("id <> ?", selfID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// slugify lowercases and keeps [a-z0-9-], collapsing everything else into
// single hyphens.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func applyCardRequest(card *database.BusinessCard, req cardRequest) {
	card.Title = req.Title
	card.Company = req.Company
	card.Position = req.Position
	card.Bio = req.Bio
	card.Email = req.Email
	card.Phone = req.Phone
	card.WhatsApp = req.WhatsApp
	card.Website = req.Website
	card.Address = req.Address
	card.MapLink = req.MapLink
	card.AvatarURL = req.AvatarURL
	card.Shape = req.Shape
	if req.Theme != nil {
		card.Theme = req.Theme
	}
	if req.Layout != nil {
		card.Layout = req.Layout
	}
}

func cloneSocialLinks(links []database.SocialLink) []database.SocialLink {
	out := make([]database.SocialLink, 0, len(links))
	for _, l := range links {
		out = append(out, database.SocialLink{
			Platform:     l.Platform,
			Handle:       l.Handle,
			URL:          l.URL,
			DisplayOrder: l.DisplayOrder,
			IsActive:     l.IsActive,
		})
	}
	return out
}

func cloneMediaItems(items []database.MediaItem) []database.MediaItem {
	out := make([]database.MediaItem, 0, len(items))
	for _, m := range items {
		out = append(out, database.MediaItem{
			Type:         m.Type,
			URL:          m.URL,
			Title:        m.Title,
			Description:  m.Description,
			ThumbnailURL: m.ThumbnailURL,
			DisplayOrder: m.DisplayOrder,
			IsActive:     m.IsActive,
		})
	}
	return out
}

func cloneProducts(products []database.ProductService) []database.ProductService {
	out := make([]database.ProductService, 0, len(products))
	for _, p := range products {
		clone := database.ProductService{
			Title:         p.Title,
			Description:   p.Description,
			Price:         p.Price,
			Category:      p.Category,
			TextAlignment: p.TextAlignment,
			IsFeatured:    p.IsFeatured,
			DisplayOrder:  p.DisplayOrder,
			IsActive:      p.IsActive,
		}
		for _, img := range p.Images {
			clone.Images = append(clone.Images, database.ProductImage{
				URL:          img.URL,
				AltText:      img.AltText,
				DisplayOrder: img.DisplayOrder,
			})
		}
		for _, q := range p.Inquiries {
			clone.Inquiries = append(clone.Inquiries, database.ProductInquiry{
				Type:       q.Type,
				Contact:    q.Contact,
				ButtonText: q.ButtonText,
				IsActive:   q.IsActive,
			})
		}
		out = append(out, clone)
	}
	return out
}

func cloneReviewLinks(reviews []database.ReviewLink) []database.ReviewLink {
	out := make([]database.ReviewLink, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, database.ReviewLink{
			Title:        r.Title,
			URL:          r.URL,
			DisplayOrder: r.DisplayOrder,
			IsActive:     r.IsActive,
		})
	}
	return out
}

func (h *CardHandler) newCardResponse(card database.BusinessCard) cardResponse {
	return cardResponse{
		ID:          card.ID,
		Slug:        card.Slug,
		ShareURL:    h.shareURL(card.Slug),
		Title:       card.Title,
		Company:     card.Company,
		Position:    card.Position,
		Bio:         card.Bio,
		Email:       card.Email,
		Phone:       card.Phone,
		WhatsApp:    card.WhatsApp,
		Website:     card.Website,
		Address:     card.Address,
		MapLink:     card.MapLink,
		AvatarURL:   card.AvatarURL,
		Theme:       card.Theme,
		Layout:      card.Layout,
		Shape:       card.Shape,
		IsPublished: card.IsPublished,
		ViewCount:   card.ViewCount,
		SnapshotKey: card.SnapshotKey,
		CreatedAt:   card.CreatedAt,
		UpdatedAt:   card.UpdatedAt,
		SocialLinks: card.SocialLinks,
		MediaItems:  card.MediaItems,
		Products:    card.Products,
		ReviewLinks: card.ReviewLinks,
	}
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
