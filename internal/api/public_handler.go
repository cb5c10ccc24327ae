package api

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"bizcard/internal/api/middleware"
	"bizcard/internal/card"
	"bizcard/internal/database"
	"bizcard/internal/tasks"
)

// PublicHandler serves the unauthenticated public card view and the
// internal render page the snapshot worker loads.
type PublicHandler struct {
	db             *gorm.DB
	asynqClient    *asynq.Client
	internalSecret string
}

// NewPublicHandler builds the public handler.
func NewPublicHandler(db *gorm.DB, asynqClient *asynq.Client, internalSecret string) *PublicHandler {
	return &PublicHandler{
		db:             db,
		asynqClient:    asynqClient,
		internalSecret: internalSecret,
	}
}

const defaultViewportWidth = 1024

// GetCard returns the composed public view for a published card and queues
// a view-tracking task. The section fetches run concurrently and degrade:
// a failing section renders empty rather than failing the page.
func (h *PublicHandler) GetCard(c *gin.Context) {
	slug := c.Param("slug")

	ctx := c.Request.Context()
	var stored database.BusinessCard
	if err := h.db.WithContext(ctx).
		Where("slug = ? AND is_published = ?", slug, true).
		First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "card not found")
			return
		}
		Internal(c, "failed to query card")
		return
	}

	view := h.composeView(ctx, c, stored, viewportWidthFromQuery(c))

	h.trackView(c, stored.ID)

	c.JSON(http.StatusOK, view)
}

func viewportWidthFromQuery(c *gin.Context) int {
	if raw := c.Query("viewport"); raw != "" {
		if width, err := strconv.Atoi(raw); err == nil && width > 0 {
			return width
		}
	}
	return defaultViewportWidth
}

func (h *PublicHandler) composeView(ctx context.Context, c *gin.Context, stored database.BusinessCard, viewportWidth int) card.View {
	logger := middleware.LoggerFromContext(c)

	var (
		wg       sync.WaitGroup
		links    []database.SocialLink
		media    []database.MediaItem
		products []database.ProductService
		reviews  []database.ReviewLink
	)

	fetch := func(name string, run func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(); err != nil {
				logger.Warn("public view section degraded",
					slog.String("section", name),
					slog.Uint64("card_id", uint64(stored.ID)),
					slog.Any("error", err),
				)
			}
		}()
	}

	// Deactivated rows stay in the editor but never render publicly.
	fetch("social_links", func() error {
		return h.db.WithContext(ctx).
			Where("business_card_id = ? AND is_active = ?", stored.ID, true).
			Order("display_order ASC, id ASC").
			Find(&links).Error
	})
	fetch("media_items", func() error {
		return h.db.WithContext(ctx).
			Where("business_card_id = ? AND is_active = ?", stored.ID, true).
			Order("display_order ASC, id ASC").
			Find(&media).Error
	})
	fetch("products", func() error {
		return h.db.WithContext(ctx).
			Where("business_card_id = ? AND is_active = ?", stored.ID, true).
			Order("display_order ASC, id ASC").
			Preload("Images", func(db *gorm.DB) *gorm.DB {
				return db.Order("display_order ASC, id ASC")
			}).
			Preload("Inquiries", "is_active = ?", true).
			Find(&products).Error
	})
	fetch("review_links", func() error {
		return h.db.WithContext(ctx).
			Where("business_card_id = ? AND is_active = ?", stored.ID, true).
			Order("created_at DESC, id DESC").
			Find(&reviews).Error
	})

	wg.Wait()

	return card.Compose(
		cardRecord(stored),
		socialLinkRecords(links),
		mediaRecords(media),
		productRecords(products),
		reviewRecords(reviews),
		viewportWidth,
	)
}

// trackView enqueues the analytics task. Failures are logged and swallowed:
// tracking never blocks or breaks the public page.
func (h *PublicHandler) trackView(c *gin.Context, cardID uint) {
	task, err := tasks.NewViewTrackTask(
		cardID,
		c.Request.UserAgent(),
		c.Request.Referer(),
		middleware.GetCorrelationID(c),
	)
	if err != nil {
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(3)); err != nil {
		middleware.LoggerFromContext(c).Warn("enqueue view track failed",
			slog.Uint64("card_id", uint64(cardID)),
			slog.Any("error", err),
		)
	}
}

func cardRecord(stored database.BusinessCard) card.Record {
	return card.Record{
		Slug:     stored.Slug,
		Title:    stored.Title,
		Company:  stored.Company,
		Position: stored.Position,
		Bio:      stored.Bio,
		Contact: card.ContactFields{
			Email:    stored.Email,
			Phone:    stored.Phone,
			WhatsApp: stored.WhatsApp,
			Website:  stored.Website,
			Address:  stored.Address,
			MapLink:  stored.MapLink,
		},
		AvatarURL:  stored.AvatarURL,
		ThemeJSON:  []byte(stored.Theme),
		LayoutJSON: []byte(stored.Layout),
		Shape:      stored.Shape,
		ViewCount:  stored.ViewCount,
	}
}

func socialLinkRecords(rows []database.SocialLink) []card.SocialLinkRecord {
	out := make([]card.SocialLinkRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, card.SocialLinkRecord{
			Platform: row.Platform,
			Handle:   row.Handle,
			URL:      row.URL,
		})
	}
	return out
}

func mediaRecords(rows []database.MediaItem) []card.MediaRecord {
	out := make([]card.MediaRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, card.MediaRecord{
			Type:         row.Type,
			URL:          row.URL,
			Title:        row.Title,
			Description:  row.Description,
			ThumbnailURL: row.ThumbnailURL,
		})
	}
	return out
}

func productRecords(rows []database.ProductService) []card.ProductRecord {
	out := make([]card.ProductRecord, 0, len(rows))
	for _, row := range rows {
		rec := card.ProductRecord{
			Title:         row.Title,
			Description:   row.Description,
			Price:         row.Price,
			Category:      row.Category,
			TextAlignment: row.TextAlignment,
			Featured:      row.IsFeatured,
		}
		for _, img := range row.Images {
			rec.Images = append(rec.Images, card.ProductImageRecord{
				URL:     img.URL,
				AltText: img.AltText,
			})
		}
		for _, q := range row.Inquiries {
			rec.Inquiries = append(rec.Inquiries, card.InquiryRecord{
				Type:       q.Type,
				Contact:    q.Contact,
				ButtonText: q.ButtonText,
			})
		}
		out = append(out, rec)
	}
	return out
}

func reviewRecords(rows []database.ReviewLink) []card.ReviewRecord {
	out := make([]card.ReviewRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, card.ReviewRecord{Title: row.Title, URL: row.URL})
	}
	return out
}

// GetCardInternal returns the composed view JSON for any card, drafts
// included. Guarded by the internal secret header, for service-to-service
// callers that want data rather than the render page.
func (h *PublicHandler) GetCardInternal(c *gin.Context) {
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

	view := h.composeView(ctx, c, stored, viewportWidthFromQuery(c))
	c.JSON(http.StatusOK, view)
}

// RenderCard serves a self-contained HTML page of the card for the snapshot
// worker to screenshot. It is token-guarded and renders drafts too, so a
// snapshot can be prepared before publishing. No view is tracked here.
func (h *PublicHandler) RenderCard(c *gin.Context) {
	if h.internalSecret == "" {
		Internal(c, "internal api secret is not configured")
		return
	}
	// Headless Chrome loads this page by URL, so the token rides in the
	// query string rather than a header.
	token := strings.TrimSpace(c.Query("internal_token"))
	if token == "" || token != h.internalSecret {
		Unauthorized(c)
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

	view := h.composeView(ctx, c, stored, defaultViewportWidth)

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := renderTemplate.Execute(c.Writer, view); err != nil {
		middleware.LoggerFromContext(c).Error("render card page failed",
			slog.Uint64("card_id", uint64(stored.ID)),
			slog.Any("error", err),
		)
	}
}

var renderTemplate = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { margin: 0; font-family: {{.Resolved.Layout.Font}}, sans-serif; background: #f3f4f6; }
  #card-root {
    width: 640px; margin: 40px auto; padding: 48px;
    background: {{.Resolved.Theme.Background}};
    color: {{.Resolved.Theme.Text}};
  }
  /* The resolved shape, alignment, and style classes land on #card-root,
     so the snapshot carries the same treatment the editor previews. */
  .flex { display: flex; }
  .flex-col { flex-direction: column; }
  .items-start { align-items: flex-start; }
  .items-center { align-items: center; }
  .items-end { align-items: flex-end; }
  .text-left { text-align: left; }
  .text-center { text-align: center; }
  .text-right { text-align: right; }
  .rounded-2xl { border-radius: 16px; }
  .rounded-3xl { border-radius: 24px; }
  .rounded-full { border-radius: 9999px; }
  .aspect-square { aspect-ratio: 1 / 1; }
  .border { border: 1px solid #e5e7eb; }
  .border-2 { border: 2px solid currentColor; }
  .border-gray-100 { border-color: #f3f4f6; }
  .border-gray-200 { border-color: #e5e7eb; }
  .shadow-lg { box-shadow: 0 10px 15px -3px rgb(0 0 0 / 0.1); }
  .shadow-xl { box-shadow: 0 20px 25px -5px rgb(0 0 0 / 0.1); }
  .shadow-2xl { box-shadow: 0 25px 50px -12px rgb(0 0 0 / 0.25); }
  .avatar { width: 128px; height: 128px; object-fit: cover; border-radius: 50%; }
  .monogram {
    width: 128px; height: 128px; border-radius: 50%;
    background: {{.Resolved.Theme.Primary}}; color: #fff;
    display: flex; align-items: center; justify-content: center; font-size: 56px;
  }
  h1 { margin: 24px 0 4px; color: {{.Resolved.Theme.Primary}}; }
  .headline { color: {{.Resolved.Theme.Secondary}}; margin: 0 0 16px; }
  .contact { margin-top: 24px; }
  .contact div { margin: 6px 0; }
</style>
</head>
<body>
<div id="card-root" class="{{.Resolved.ShapeClass}} {{.Resolved.StyleClass}} {{.Resolved.AlignmentClass}}">
  {{if .AvatarURL}}<img class="avatar" src="{{.AvatarURL}}">{{else if .Monogram}}<div class="monogram">{{.Monogram}}</div>{{end}}
  <h1>{{.Title}}</h1>
  {{if .Headline}}<p class="headline">{{.Headline}}</p>{{end}}
  {{if .Bio}}<p>{{.Bio}}</p>{{end}}
  <div class="contact">
  {{range .Contact}}<div>{{.Label}}</div>
  {{end}}</div>
</div>
</body>
</html>
`))
