package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is an account that owns business cards. Admin accounts are seeded by
// the admin CLI and gate the console endpoints.
type User struct {
	gorm.Model
	Username           string         `gorm:"uniqueIndex;size:64"`
	PasswordHash       string         `gorm:"size:255"`
	IsAdmin            bool           `gorm:"default:false"`
	MustChangePassword bool           `gorm:"default:false"`
	Cards              []BusinessCard `gorm:"constraint:OnDelete:CASCADE"`
}

// BusinessCard is the central aggregate. Theme and Layout are stored as
// opaque JSONB blobs; missing or malformed blobs resolve to defaults at
// composition time, never at write time.
type BusinessCard struct {
	gorm.Model
	UserID uint `gorm:"index"`
	User   User `gorm:"constraint:OnDelete:CASCADE"`

	Slug     string `gorm:"uniqueIndex;size:128"`
	Title    string `gorm:"size:255"`
	Company  string `gorm:"size:255"`
	Position string `gorm:"size:255"`
	Bio      string `gorm:"type:text"`

	Email    string `gorm:"size:255"`
	Phone    string `gorm:"size:64"`
	WhatsApp string `gorm:"size:64"`
	Website  string `gorm:"size:512"`
	Address  string `gorm:"size:512"`
	MapLink  string `gorm:"size:512"`

	AvatarURL string         `gorm:"size:512"`
	Theme     datatypes.JSON `gorm:"type:jsonb"`
	Layout    datatypes.JSON `gorm:"type:jsonb"`
	Shape     string         `gorm:"size:32"`

	IsPublished bool  `gorm:"default:false;index"`
	ViewCount   int64 `gorm:"default:0"`

	// Object key of the rendered PNG snapshot, empty until the first
	// render job completes.
	SnapshotKey string `gorm:"size:512"`

	SocialLinks []SocialLink     `gorm:"constraint:OnDelete:CASCADE"`
	MediaItems  []MediaItem      `gorm:"constraint:OnDelete:CASCADE"`
	Products    []ProductService `gorm:"constraint:OnDelete:CASCADE"`
	ReviewLinks []ReviewLink     `gorm:"constraint:OnDelete:CASCADE"`
}

// SocialLink is one social profile row on a card. URL is regenerated from
// platform and handle on edit unless only the URL itself was touched.
// Deactivated rows stay stored but never reach the public view; the save
// handlers default the flag to true, not the schema, so an explicit false
// survives the insert.
type SocialLink struct {
	gorm.Model
	BusinessCardID uint   `gorm:"index"`
	Platform       string `gorm:"size:64"`
	Handle         string `gorm:"size:255"`
	URL            string `gorm:"size:512"`
	DisplayOrder   int    `gorm:"default:0"`
	IsActive       bool   `gorm:"index"`
}

// MediaItem is a gallery entry: an uploaded image or document, or an
// external video link.
type MediaItem struct {
	gorm.Model
	BusinessCardID uint   `gorm:"index"`
	Type           string `gorm:"size:32"` // image, video, or document
	URL            string `gorm:"size:512"`
	Title          string `gorm:"size:255"`
	Description    string `gorm:"type:text"`
	ThumbnailURL   string `gorm:"size:512"`
	DisplayOrder   int    `gorm:"default:0"`
	IsActive       bool   `gorm:"index"`
}

// ProductService is a product or service block with its images and
// call-to-action rows.
type ProductService struct {
	gorm.Model
	BusinessCardID uint   `gorm:"index"`
	Title          string `gorm:"size:255"`
	Description    string `gorm:"type:text"`
	Price          string `gorm:"size:64"`
	Category       string `gorm:"size:128"`
	TextAlignment  string `gorm:"size:16"`
	IsFeatured     bool   `gorm:"default:false"`
	DisplayOrder   int    `gorm:"default:0"`
	IsActive       bool   `gorm:"index"`

	Images    []ProductImage   `gorm:"constraint:OnDelete:CASCADE"`
	Inquiries []ProductInquiry `gorm:"constraint:OnDelete:CASCADE"`
}

// ProductImage is one image in a product's set.
type ProductImage struct {
	gorm.Model
	ProductServiceID uint   `gorm:"index"`
	URL              string `gorm:"size:512"`
	AltText          string `gorm:"size:255"`
	DisplayOrder     int    `gorm:"default:0"`
}

// ProductInquiry is a call-to-action button on a product: phone, whatsapp,
// email, or a plain link.
type ProductInquiry struct {
	gorm.Model
	ProductServiceID uint   `gorm:"index"`
	Type             string `gorm:"size:32"`
	Contact          string `gorm:"size:512"`
	ButtonText       string `gorm:"size:128"`
	IsActive         bool
}

// ReviewLink points at an external review page (Google, Yelp, ...).
type ReviewLink struct {
	gorm.Model
	BusinessCardID uint   `gorm:"index"`
	Title          string `gorm:"size:255"`
	URL            string `gorm:"size:512"`
	DisplayOrder   int    `gorm:"default:0"`
	IsActive       bool   `gorm:"index"`
}

// CardAnalytics is one recorded public view, written by the worker after the
// fire-and-forget enqueue on the view endpoint.
type CardAnalytics struct {
	ID             uint      `gorm:"primarykey"`
	BusinessCardID uint      `gorm:"index"`
	ViewedAt       time.Time `gorm:"index"`
	UserAgent      string    `gorm:"size:512"`
	Referrer       string    `gorm:"size:512"`
	DeviceClass    string    `gorm:"size:16"` // mobile or desktop
}

// Asset records an uploaded object so orphans can be swept and ownership
// checked before presigning.
type Asset struct {
	gorm.Model
	UserID      uint   `gorm:"index"`
	ObjectKey   string `gorm:"uniqueIndex;size:512"`
	ContentType string `gorm:"size:128"`
	Size        int64
}

// Models lists every persisted type for AutoMigrate at startup.
func Models() []any {
	return []any{
		&User{},
		&BusinessCard{},
		&SocialLink{},
		&MediaItem{},
		&ProductService{},
		&ProductImage{},
		&ProductInquiry{},
		&ReviewLink{},
		&CardAnalytics{},
		&Asset{},
	}
}
