package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bizcard/internal/card"
	"bizcard/internal/database"
)

// Section saves replace the card's whole row set in one transaction, with
// display order taken from list position. This mirrors how the editor works:
// it always submits the full list.

type socialLinkItem struct {
	ID       uint   `json:"id"`
	Platform string `json:"platform" binding:"required,max=64"`
	Handle   string `json:"handle" binding:"max=255"`
	URL      string `json:"url" binding:"max=512"`
	IsActive *bool  `json:"is_active"`
}

// activeFlag defaults an omitted is_active to true, so older editor payloads
// keep every row visible.
func activeFlag(v *bool) bool {
	return v == nil || *v
}

type socialLinksRequest struct {
	Links []socialLinkItem `json:"links" binding:"required,dive"`
}

// UpdateSocialLinks replaces the card's social links. For rows that existed
// before, the URL is regenerated when platform or handle changed; brand new
// rows without a URL get one derived immediately.
func (h *CardHandler) UpdateSocialLinks(c *gin.Context) {
	var req socialLinksRequest
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
	owned, err := h.getCardForUser(ctx, c.Param("id"), userID, false)
	if err != nil {
		h.respondCardLookupError(c, err)
		return
	}

	var existing []database.SocialLink
	if err := h.db.WithContext(ctx).
		Where("business_card_id = ?", owned.ID).
		Find(&existing).Error; err != nil {
		Internal(c, "failed to load social links")
		return
	}
	existingByID := make(map[uint]database.SocialLink, len(existing))
	for _, row := range existing {
		existingByID[row.ID] = row
	}

	rows := make([]database.SocialLink, 0, len(req.Links))
	for i, item := range req.Links {
		edit := card.SocialEdit{Platform: item.Platform, Handle: item.Handle, URL: item.URL}
		if stored, ok := existingByID[item.ID]; ok {
			edit = card.ApplySocialEdit(stored.Platform, stored.Handle, edit)
		} else if edit.URL == "" && edit.Handle != "" {
			edit.URL = card.GenerateSocialURL(edit.Platform, edit.Handle)
		}
		rows = append(rows, database.SocialLink{
			BusinessCardID: owned.ID,
			Platform:       edit.Platform,
			Handle:         edit.Handle,
			URL:            edit.URL,
			DisplayOrder:   i,
			IsActive:       activeFlag(item.IsActive),
		})
	}

	if err := h.replaceSection(ctx, owned.ID, &database.SocialLink{}, func(tx *gorm.DB) error {
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	}); err != nil {
		Internal(c, "failed to save social links")
		return
	}

	c.JSON(http.StatusOK, rows)
}

type mediaItemRequest struct {
	Type         string `json:"type" binding:"required,oneof=image video document"`
	URL          string `json:"url" binding:"required,max=512"`
	Title        string `json:"title" binding:"max=255"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url" binding:"max=512"`
	IsActive     *bool  `json:"is_active"`
}

type mediaItemsRequest struct {
	Items []mediaItemRequest `json:"items" binding:"required,dive"`
}

// UpdateMediaItems replaces the card's media gallery.
func (h *CardHandler) UpdateMediaItems(c *gin.Context) {
	var req mediaItemsRequest
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
	owned, err := h.getCardForUser(ctx, c.Param("id"), userID, false)
	if err != nil {
		h.respondCardLookupError(c, err)
		return
	}

	rows := make([]database.MediaItem, 0, len(req.Items))
	for i, item := range req.Items {
		rows = append(rows, database.MediaItem{
			BusinessCardID: owned.ID,
			Type:           item.Type,
			URL:            item.URL,
			Title:          item.Title,
			Description:    item.Description,
			ThumbnailURL:   item.ThumbnailURL,
			DisplayOrder:   i,
			IsActive:       activeFlag(item.IsActive),
		})
	}

	if err := h.replaceSection(ctx, owned.ID, &database.MediaItem{}, func(tx *gorm.DB) error {
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	}); err != nil {
		Internal(c, "failed to save media items")
		return
	}

	c.JSON(http.StatusOK, rows)
}

type productImageRequest struct {
	URL     string `json:"url" binding:"required,max=512"`
	AltText string `json:"alt_text" binding:"max=255"`
}

type productInquiryRequest struct {
	Type       string `json:"type" binding:"required,max=32"`
	Contact    string `json:"contact" binding:"required,max=512"`
	ButtonText string `json:"button_text" binding:"required,max=128"`
	IsActive   *bool  `json:"is_active"`
}

type productRequest struct {
	Title         string                  `json:"title" binding:"required,max=255"`
	Description   string                  `json:"description"`
	Price         string                  `json:"price" binding:"max=64"`
	Category      string                  `json:"category" binding:"max=128"`
	TextAlignment string                  `json:"text_alignment" binding:"max=16"`
	IsFeatured    bool                    `json:"is_featured"`
	IsActive      *bool                   `json:"is_active"`
	Images        []productImageRequest   `json:"images" binding:"dive"`
	Inquiries     []productInquiryRequest `json:"inquiries" binding:"dive"`
}

type productsRequest struct {
	Products []productRequest `json:"products" binding:"required,dive"`
}

// UpdateProducts replaces the card's products with their nested images and
// call-to-action rows.
func (h *CardHandler) UpdateProducts(c *gin.Context) {
	var req productsRequest
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
	owned, err := h.getCardForUser(ctx, c.Param("id"), userID, false)
	if err != nil {
		h.respondCardLookupError(c, err)
		return
	}

	rows := make([]database.ProductService, 0, len(req.Products))
	for i, item := range req.Products {
		product := database.ProductService{
			BusinessCardID: owned.ID,
			Title:          item.Title,
			Description:    item.Description,
			Price:          item.Price,
			Category:       item.Category,
			TextAlignment:  item.TextAlignment,
			IsFeatured:     item.IsFeatured,
			DisplayOrder:   i,
			IsActive:       activeFlag(item.IsActive),
		}
		for j, img := range item.Images {
			product.Images = append(product.Images, database.ProductImage{
				URL:          img.URL,
				AltText:      img.AltText,
				DisplayOrder: j,
			})
		}
		for _, q := range item.Inquiries {
			product.Inquiries = append(product.Inquiries, database.ProductInquiry{
				Type:       q.Type,
				Contact:    q.Contact,
				ButtonText: q.ButtonText,
				IsActive:   activeFlag(q.IsActive),
			})
		}
		rows = append(rows, product)
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []database.ProductService
		if err := tx.Where("business_card_id = ?", owned.ID).Find(&stale).Error; err != nil {
			return err
		}
		if len(stale) > 0 {
			if err := tx.Select("Images", "Inquiries").Delete(&stale).Error; err != nil {
				return err
			}
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		Internal(c, "failed to save products")
		return
	}

	c.JSON(http.StatusOK, rows)
}

type reviewLinkRequest struct {
	Title    string `json:"title" binding:"required,max=255"`
	URL      string `json:"url" binding:"required,max=512"`
	IsActive *bool  `json:"is_active"`
}

type reviewLinksRequest struct {
	Reviews []reviewLinkRequest `json:"reviews" binding:"required,dive"`
}

// UpdateReviewLinks replaces the card's review links.
func (h *CardHandler) UpdateReviewLinks(c *gin.Context) {
	var req reviewLinksRequest
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
	owned, err := h.getCardForUser(ctx, c.Param("id"), userID, false)
	if err != nil {
		h.respondCardLookupError(c, err)
		return
	}

	rows := make([]database.ReviewLink, 0, len(req.Reviews))
	for i, item := range req.Reviews {
		rows = append(rows, database.ReviewLink{
			BusinessCardID: owned.ID,
			Title:          item.Title,
			URL:            item.URL,
			DisplayOrder:   i,
			IsActive:       activeFlag(item.IsActive),
		})
	}

	if err := h.replaceSection(ctx, owned.ID, &database.ReviewLink{}, func(tx *gorm.DB) error {
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	}); err != nil {
		Internal(c, "failed to save review links")
		return
	}

	c.JSON(http.StatusOK, rows)
}

// replaceSection deletes every row of one section model for the card, then
// runs the insert inside the same transaction.
func (h *CardHandler) replaceSection(ctx context.Context, cardID uint, model any, insert func(tx *gorm.DB) error) error {
	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_card_id = ?", cardID).Delete(model).Error; err != nil {
			return err
		}
		return insert(tx)
	})
}
