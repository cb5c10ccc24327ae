package api

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bizcard/internal/database"
)

// AdminHandler serves the admin console: card listing with search and
// sorting, moderation deletes, a CSV export, and dashboard statistics.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler builds the admin handler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

type adminCardItem struct {
	ID          uint      `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Company     string    `json:"company,omitempty"`
	Username    string    `json:"username"`
	IsPublished bool      `json:"is_published"`
	ViewCount   int64     `json:"view_count"`
	CreatedAt   time.Time `json:"created_at"`
}

var adminSortColumns = map[string]string{
	"created_at": "business_cards.created_at",
	"view_count": "business_cards.view_count",
	"title":      "business_cards.title",
}

// ListCards lists all cards across users with optional search and sorting.
func (h *AdminHandler) ListCards(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "25"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 25
	}

	column, ok := adminSortColumns[c.DefaultQuery("sort", "created_at")]
	if !ok {
		BadRequest(c, "invalid sort column")
		return
	}
	direction := "DESC"
	if c.DefaultQuery("order", "desc") == "asc" {
		direction = "ASC"
	}

	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).
		Model(&database.BusinessCard{}).
		Joins("JOIN users ON users.id = business_cards.user_id")

	if search := c.Query("q"); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"business_cards.title LIKE ? OR business_cards.slug LIKE ? OR users.username LIKE ?",
			like, like, like,
		)
	}
	if published := c.Query("published"); published != "" {
		query = query.Where("business_cards.is_published = ?", published == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		Internal(c, "failed to count cards")
		return
	}

	var items []adminCardItem
	if err := query.
		Select("business_cards.id", "business_cards.slug", "business_cards.title",
			"business_cards.company", "users.username", "business_cards.is_published",
			"business_cards.view_count", "business_cards.created_at").
		Order(column + " " + direction).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&items).Error; err != nil {
		Internal(c, "failed to list cards")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// DeleteCard removes any user's card. Moderation only; the owning user keeps
// their account.
func (h *AdminHandler) DeleteCard(c *gin.Context) {
	cardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid card id")
		return
	}

	ctx := c.Request.Context()
	var stored database.BusinessCard
	if err := h.db.WithContext(ctx).First(&stored, uint(cardID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "card not found")
			return
		}
		Internal(c, "failed to query card")
		return
	}

	if err := h.db.WithContext(ctx).Select(
		"SocialLinks", "MediaItems", "Products", "ReviewLinks",
	).Delete(&stored).Error; err != nil {
		Internal(c, "failed to delete card")
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportCardsCSV streams every card as CSV for offline analysis.
func (h *AdminHandler) ExportCardsCSV(c *gin.Context) {
	ctx := c.Request.Context()

	var rows []adminCardItem
	if err := h.db.WithContext(ctx).
		Model(&database.BusinessCard{}).
		Joins("JOIN users ON users.id = business_cards.user_id").
		Select("business_cards.id", "business_cards.slug", "business_cards.title",
			"business_cards.company", "users.username", "business_cards.is_published",
			"business_cards.view_count", "business_cards.created_at").
		Order("business_cards.created_at ASC").
		Scan(&rows).Error; err != nil {
		Internal(c, "failed to export cards")
		return
	}

	filename := "cards-" + time.Now().UTC().Format("20060102") + ".csv"
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write([]string{"id", "slug", "title", "company", "username", "published", "view_count", "created_at"})
	for _, row := range rows {
		_ = writer.Write([]string{
			strconv.FormatUint(uint64(row.ID), 10),
			row.Slug,
			row.Title,
			row.Company,
			row.Username,
			strconv.FormatBool(row.IsPublished),
			strconv.FormatInt(row.ViewCount, 10),
			row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writer.Flush()
}

type adminUserItem struct {
	ID                 uint      `json:"id"`
	Username           string    `json:"username"`
	IsAdmin            bool      `json:"is_admin"`
	MustChangePassword bool      `json:"must_change_password"`
	CardCount          int64     `json:"card_count"`
	CreatedAt          time.Time `json:"created_at"`
}

// ListUsers lists accounts with their card counts.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "25"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 25
	}

	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).Model(&database.User{})
	if search := c.Query("q"); search != "" {
		query = query.Where("username LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		Internal(c, "failed to count users")
		return
	}

	var items []adminUserItem
	if err := query.
		Select("users.id", "users.username", "users.is_admin",
			"users.must_change_password", "users.created_at",
			"(SELECT COUNT(*) FROM business_cards WHERE business_cards.user_id = users.id AND business_cards.deleted_at IS NULL) AS card_count").
		Order("users.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&items).Error; err != nil {
		Internal(c, "failed to list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ExportUsersCSV streams every account as CSV.
func (h *AdminHandler) ExportUsersCSV(c *gin.Context) {
	ctx := c.Request.Context()

	var rows []adminUserItem
	if err := h.db.WithContext(ctx).
		Model(&database.User{}).
		Select("users.id", "users.username", "users.is_admin",
			"users.must_change_password", "users.created_at",
			"(SELECT COUNT(*) FROM business_cards WHERE business_cards.user_id = users.id AND business_cards.deleted_at IS NULL) AS card_count").
		Order("users.created_at ASC").
		Scan(&rows).Error; err != nil {
		Internal(c, "failed to export users")
		return
	}

	filename := "users-" + time.Now().UTC().Format("20060102") + ".csv"
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write([]string{"id", "username", "admin", "card_count", "created_at"})
	for _, row := range rows {
		_ = writer.Write([]string{
			strconv.FormatUint(uint64(row.ID), 10),
			row.Username,
			strconv.FormatBool(row.IsAdmin),
			strconv.FormatInt(row.CardCount, 10),
			row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writer.Flush()
}

type adminPublishRequest struct {
	Published bool `json:"published"`
}

// SetCardPublished force-publishes or unpublishes any card, for moderation.
func (h *AdminHandler) SetCardPublished(c *gin.Context) {
	var req adminPublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	cardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid card id")
		return
	}

	ctx := c.Request.Context()
	var stored database.BusinessCard
	if err := h.db.WithContext(ctx).First(&stored, uint(cardID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "card not found")
			return
		}
		Internal(c, "failed to query card")
		return
	}

	if err := h.db.WithContext(ctx).Model(&stored).
		Update("is_published", req.Published).Error; err != nil {
		Internal(c, "failed to update card")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": stored.ID, "is_published": req.Published})
}

type dashboardStats struct {
	TotalUsers     int64 `json:"total_users"`
	TotalCards     int64 `json:"total_cards"`
	PublishedCards int64 `json:"published_cards"`
	TotalViews     int64 `json:"total_views"`
	ViewsLast7Days int64 `json:"views_last_7_days"`
	MobileViews    int64 `json:"mobile_views"`
	DesktopViews   int64 `json:"desktop_views"`
}

// GetStats returns the dashboard counters.
func (h *AdminHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	var stats dashboardStats

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalUsers, h.db.WithContext(ctx).Model(&database.User{})},
		{&stats.TotalCards, h.db.WithContext(ctx).Model(&database.BusinessCard{})},
		{&stats.PublishedCards, h.db.WithContext(ctx).Model(&database.BusinessCard{}).Where("is_published = ?", true)},
		{&stats.ViewsLast7Days, h.db.WithContext(ctx).Model(&database.CardAnalytics{}).Where("viewed_at > ?", time.Now().AddDate(0, 0, -7))},
		{&stats.MobileViews, h.db.WithContext(ctx).Model(&database.CardAnalytics{}).Where("device_class = ?", "mobile")},
		{&stats.DesktopViews, h.db.WithContext(ctx).Model(&database.CardAnalytics{}).Where("device_class = ?", "desktop")},
	}
	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			Internal(c, "failed to compute stats")
			return
		}
	}

	if err := h.db.WithContext(ctx).
		Model(&database.BusinessCard{}).
		Select("COALESCE(SUM(view_count), 0)").
		Scan(&stats.TotalViews).Error; err != nil {
		Internal(c, "failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetCardAnalytics lists the recent view rows of one card.
func (h *AdminHandler) GetCardAnalytics(c *gin.Context) {
	cardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid card id")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 500 {
		limit = 100
	}

	ctx := c.Request.Context()
	var views []database.CardAnalytics
	if err := h.db.WithContext(ctx).
		Where("business_card_id = ?", uint(cardID)).
		Order("viewed_at DESC").
		Limit(limit).
		Find(&views).Error; err != nil {
		Internal(c, "failed to query analytics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"card_id": cardID,
		"views":   views,
		"count":   len(views),
	})
}
