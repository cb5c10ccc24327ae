package worker

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bizcard/internal/database"
	"bizcard/internal/tasks"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestViewTrackHandler_IncrementsAndRecords(t *testing.T) {
	db := newTestDB(t)
	user := database.User{Username: "jane", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	card := database.BusinessCard{UserID: user.ID, Slug: "jane", Title: "Jane", ViewCount: 3}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}

	h := NewViewTrackHandler(db, slog.Default())
	task, err := tasks.NewViewTrackTask(card.ID, "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)", "https://ref.example", "corr-1")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process task: %v", err)
	}

	var stored database.BusinessCard
	if err := db.First(&stored, card.ID).Error; err != nil {
		t.Fatalf("reload card: %v", err)
	}
	if stored.ViewCount != 4 {
		t.Errorf("view count = %d, want 4", stored.ViewCount)
	}

	var rows []database.CardAnalytics
	if err := db.Where("business_card_id = ?", card.ID).Find(&rows).Error; err != nil {
		t.Fatalf("load analytics: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("analytics rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.DeviceClass != "mobile" {
		t.Errorf("device class = %q, want mobile", row.DeviceClass)
	}
	if row.Referrer != "https://ref.example" {
		t.Errorf("referrer = %q", row.Referrer)
	}
	if row.ViewedAt.IsZero() {
		t.Error("viewed at must be set")
	}
}

func TestViewTrackHandler_MissingCardIsDropped(t *testing.T) {
	db := newTestDB(t)

	h := NewViewTrackHandler(db, slog.Default())
	task, err := tasks.NewViewTrackTask(9999, "curl/8", "", "corr-2")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	// A deleted card must not keep the task retrying.
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process task: %v", err)
	}

	var count int64
	if err := db.Model(&database.CardAnalytics{}).Count(&count).Error; err != nil {
		t.Fatalf("count analytics: %v", err)
	}
	if count != 0 {
		t.Errorf("analytics rows = %d, want 0", count)
	}
}

func TestClassifyDevice(t *testing.T) {
	cases := []struct {
		ua   string
		want string
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", "mobile"},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8)", "mobile"},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)", "mobile"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)", "desktop"},
		{"curl/8.4.0", "desktop"},
		{"", "desktop"},
	}
	for _, tc := range cases {
		if got := ClassifyDevice(tc.ua); got != tc.want {
			t.Errorf("ClassifyDevice(%q) = %q, want %q", tc.ua, got, tc.want)
		}
	}
}
