package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bizcard/internal/database"
)

func newCardTestRouter(h *CardHandler, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/v1/cards", authAs(userID))
	group.POST("", h.CreateCard)
	group.GET("", h.ListCards)
	group.GET("/:id", h.GetCard)
	group.PUT("/:id", h.UpdateCard)
	group.DELETE("/:id", h.DeleteCard)
	group.PUT("/:id/publish", h.SetPublished)
	group.POST("/:id/duplicate", h.DuplicateCard)
	group.PUT("/:id/social-links", h.UpdateSocialLinks)
	group.PUT("/:id/media", h.UpdateMediaItems)
	group.PUT("/:id/reviews", h.UpdateReviewLinks)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Jane Doe Photography", "jane-doe-photography"},
		{"  Jane   Doe  ", "jane-doe"},
		{"Caf\u00e9 & Bar!", "caf-bar"},
		{"---", ""},
		{"ALL CAPS 99", "all-caps-99"},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreateCard_DerivesSlug(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "jane")
	h := NewCardHandler(db, newDeadAsynqClient(t), nil, 10, "https://cards.example")
	r := newCardTestRouter(h, user.ID)

	w := doJSON(t, r, http.MethodPost, "/v1/cards", map[string]any{
		"title": "Jane Doe Photography",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp cardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Slug != "jane-doe-photography" {
		t.Errorf("slug = %q, want jane-doe-photography", resp.Slug)
	}
	if resp.ShareURL != "https://cards.example/c/jane-doe-photography" {
		t.Errorf("share url = %q", resp.ShareURL)
	}
	if resp.IsPublished {
		t.Error("new card must start unpublished")
	}
}

func TestCreateCard_ExplicitSlugConflict(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "jane")
	other := seedUser(t, db, "john")
	if err := db.Create(&database.BusinessCard{UserID: other.ID, Slug: "taken", Title: "x"}).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}

	h := NewCardHandler(db, newDeadAsynqClient(t), nil, 10, "https://cards.example")
	r := newCardTestRouter(h, user.ID)

	w := doJSON(t, r, http.MethodPost, "/v1/cards", map[string]any{
		"title": "Mine",
		"slug":  "taken",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestCreateCard_DuplicateTitleGetsSuffixedSlug(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "jane")
	h := NewCardHandler(db, newDeadAsynqClient(t), nil, 10, "https://cards.example")
	r := newCardTestRouter(h, user.ID)

	first := doJSON(t, r, http.MethodPost, "/v1/cards", map[string]any{"title": "Studio"})
	if first.Code != http.StatusCreated {
		t.Fatalf("first create: %d", first.Code)
	}
	second := doJSON(t, r, http.MethodPost, "/v1/cards", map[string]any{"title": "Studio"})
	if second.Code != http.StatusCreated {
		t.Fatalf("second create: %d, body = %s", second.Code, second.Body.String())
	}

	var resp cardResponse
	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Slug == "studio" || resp.Slug == "" {
		t.Errorf("second slug %q must differ from the first", resp.Slug)
	}
}

func TestCreateCard_EnforcesLimit(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "jane")
	for i := 0; i < 2; i++ {
		card := database.BusinessCard{UserID: user.ID, Slug: "c-" + strconv.Itoa(i), Title: "c"}
		if err := db.Create(&card).Error; err != nil {
			t.Fatalf("seed card: %v", err)
		}
	}

	h := NewCardHandler(db, newDeadAsynqClient(t), nil, 2, "https://cards.example")
	r := newCardTestRouter(h, user.ID)

	w := doJSON(t, r, http.MethodPost, "/v1/cards", map[string]any{"title": "One Too Many"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestGetCard_OtherUsersCardIsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner")
	intruder := seedUser(t, db, "intruder")
	card := database.BusinessCard{UserID: owner.ID, Slug: "mine", Title: "Mine"}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}

	h := NewCardHandler(db, newDeadAsynqClient(t), nil, 10, "https://cards.example")
	r := newCardTestRouter(h, intruder.ID)

	w := doJSON(t, r, http.MethodGet, "/v1/cards/"+strconv.Itoa(int(card.ID)), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestSetPublished_SurvivesQueueOutage(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "jane")
	card := database.BusinessCard{UserID: user.ID, Slug: "mine", Title: "Mine"}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}

	h := NewCardHandler(db, newDeadAsynqClient(t), nil, 10, "https://cards.example")
	r := newCardTestRouter(h, user.ID)

	w := doJSON(t, r, http.MethodPut, "/v1/cards/"+strconv.Itoa(int(card.ID))+"/publish",
		map[string]any{"published": true})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var stored database.BusinessCard
	if err := db.First(&stored, card.ID).Error; err != nil {
		t.Fatalf("reload card: %v", err)
	}
	if !stored.IsPublished {
		t.Error("card must be published even when the snapshot enqueue fails")
	}
}

func TestDuplicateCard_ClonesSections(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "jane")
	card := database.BusinessCard{
		UserID: user.ID, Slug: "studio", Title: "Studio",
		IsPublished: true, ViewCount: 17, SnapshotKey: "cards/1/snap.png",
		SocialLinks: []database.SocialLink{{Platform: "Instagram", Handle: "studio", URL: "https://instagram.com/studio", IsActive: true}},
		Products: []database.ProductService{{
			Title: "Portrait Session", IsActive: true,
			Images: []database.ProductImage{{URL: "https://cdn.example/p.jpg"}},
			Inquiries: []database.ProductInquiry{{Type: "email", Contact: "hi@studio.example"}},
		}},
	}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}

	h := NewCardHandler(db, newDeadAsynqClient(t), nil, 10, "https://cards.example")
	r := newCardTestRouter(h, user.ID)

	w := doJSON(t, r, http.MethodPost, "/v1/cards/"+strconv.Itoa(int(card.ID))+"/duplicate", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp cardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == card.ID {
		t.Fatal("duplicate must be a new row")
	}
	if resp.Title != "Studio (copy)" {
		t.Errorf("title = %q", resp.Title)
	}
	if resp.Slug == card.Slug {
		t.Errorf("slug %q must differ from the source", resp.Slug)
	}
	if resp.IsPublished || resp.ViewCount != 0 || resp.SnapshotKey != "" {
		t.Error("duplicate must start unpublished with zero views and no snapshot")
	}

	var clone database.BusinessCard
	if err := db.Preload("SocialLinks").Preload("Products.Images").Preload("Products.Inquiries").
		First(&clone, resp.ID).Error; err != nil {
		t.Fatalf("reload clone: %v", err)
	}
	if len(clone.SocialLinks) != 1 || clone.SocialLinks[0].Handle != "studio" || !clone.SocialLinks[0].IsActive {
		t.Errorf("social links not cloned: %+v", clone.SocialLinks)
	}
	if len(clone.Products) != 1 || len(clone.Products[0].Images) != 1 || len(clone.Products[0].Inquiries) != 1 {
		t.Errorf("product tree not cloned: %+v", clone.Products)
	}
}

func TestDeleteCard_RemovesChildren(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "jane")
	card := database.BusinessCard{
		UserID: user.ID, Slug: "studio", Title: "Studio",
		ReviewLinks: []database.ReviewLink{{Title: "Google", URL: "https://g.example/r"}},
	}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}

	h := NewCardHandler(db, newDeadAsynqClient(t), nil, 10, "https://cards.example")
	r := newCardTestRouter(h, user.ID)

	w := doJSON(t, r, http.MethodDelete, "/v1/cards/"+strconv.Itoa(int(card.ID)), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var remaining int64
	if err := db.Model(&database.ReviewLink{}).
		Where("business_card_id = ?", card.ID).
		Count(&remaining).Error; err != nil {
		t.Fatalf("count review links: %v", err)
	}
	if remaining != 0 {
		t.Errorf("review links left behind: %d", remaining)
	}
	if err := db.First(&database.BusinessCard{}, card.ID).Error; err == nil {
		t.Error("card still present after delete")
	} else if err != gorm.ErrRecordNotFound {
		t.Errorf("unexpected lookup error: %v", err)
	}
}

func TestUpdateSocialLinks_RegeneratesURLOnHandleChange(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "jane")
	card := database.BusinessCard{
		UserID: user.ID, Slug: "studio", Title: "Studio",
		SocialLinks: []database.SocialLink{
			{Platform: "Instagram", Handle: "old", URL: "https://instagram.com/old", IsActive: true},
		},
	}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}
	linkID := card.SocialLinks[0].ID

	h := NewCardHandler(db, newDeadAsynqClient(t), nil, 10, "https://cards.example")
	r := newCardTestRouter(h, user.ID)

	w := doJSON(t, r, http.MethodPut, "/v1/cards/"+strconv.Itoa(int(card.ID))+"/social-links",
		map[string]any{"links": []map[string]any{
			{"id": linkID, "platform": "Instagram", "handle": "new", "url": "https://instagram.com/old"},
			{"platform": "GitHub", "handle": "studio"},
		}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var rows []database.SocialLink
	if err := db.Where("business_card_id = ?", card.ID).
		Order("display_order ASC").Find(&rows).Error; err != nil {
		t.Fatalf("reload links: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].URL != "https://instagram.com/new" {
		t.Errorf("changed handle must regenerate the URL, got %q", rows[0].URL)
	}
	if rows[1].URL != "https://github.com/studio" {
		t.Errorf("new row must derive a URL, got %q", rows[1].URL)
	}
	if rows[0].DisplayOrder != 0 || rows[1].DisplayOrder != 1 {
		t.Errorf("display order must follow list position: %d, %d", rows[0].DisplayOrder, rows[1].DisplayOrder)
	}
}

func TestUpdateMediaItems_RejectsUnknownType(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "jane")
	card := database.BusinessCard{UserID: user.ID, Slug: "studio", Title: "Studio"}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}

	h := NewCardHandler(db, newDeadAsynqClient(t), nil, 10, "https://cards.example")
	r := newCardTestRouter(h, user.ID)

	w := doJSON(t, r, http.MethodPut, "/v1/cards/"+strconv.Itoa(int(card.ID))+"/media",
		map[string]any{"items": []map[string]any{
			{"type": "gif", "url": "https://cdn.example/a.gif"},
		}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUpdateMediaItems_DocumentsAndActiveFlag(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "jane")
	card := database.BusinessCard{UserID: user.ID, Slug: "studio", Title: "Studio"}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}

	h := NewCardHandler(db, newDeadAsynqClient(t), nil, 10, "https://cards.example")
	r := newCardTestRouter(h, user.ID)

	w := doJSON(t, r, http.MethodPut, "/v1/cards/"+strconv.Itoa(int(card.ID))+"/media",
		map[string]any{"items": []map[string]any{
			{"type": "document", "url": "https://cdn.example/menu.pdf", "is_active": false},
			{"type": "image", "url": "https://cdn.example/a.jpg"},
		}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var rows []database.MediaItem
	if err := db.Where("business_card_id = ?", card.ID).
		Order("display_order ASC").Find(&rows).Error; err != nil {
		t.Fatalf("reload media: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Type != "document" || rows[0].IsActive {
		t.Errorf("document row = %+v, want stored with is_active false", rows[0])
	}
	if !rows[1].IsActive {
		t.Error("omitted is_active must default to true")
	}
}
