package card

import (
	"strconv"
	"strings"
)

// Record types mirror the persisted rows, decoupled from the storage layer
// so the whole composition model stays pure and testable.

// Record is the persisted card as handed to the view composer.
type Record struct {
	Slug       string
	Title      string
	Company    string
	Position   string
	Bio        string
	AvatarURL  string
	Contact    ContactFields
	ThemeJSON  []byte
	LayoutJSON []byte
	Shape      string
	ViewCount  int64
}

// SocialLinkRecord is one stored social link row.
type SocialLinkRecord struct {
	Platform string
	Handle   string
	URL      string
}

// MediaRecord is one stored media item row.
type MediaRecord struct {
	Type         string
	URL          string
	Title        string
	Description  string
	ThumbnailURL string
}

// ProductRecord is one stored product/service with its child rows.
type ProductRecord struct {
	Title         string
	Description   string
	Price         string
	Category      string
	TextAlignment string
	Featured      bool
	Images        []ProductImageRecord
	Inquiries     []InquiryRecord
}

// ProductImageRecord is one stored product image row.
type ProductImageRecord struct {
	URL     string
	AltText string
}

// InquiryRecord is one stored call-to-action row on a product.
type InquiryRecord struct {
	Type       string
	Contact    string
	ButtonText string
}

// ReviewRecord is one stored review link row.
type ReviewRecord struct {
	Title string
	URL   string
}

// View output types.

// SocialLinkView is a renderable social link with its icon resolved.
type SocialLinkView struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle,omitempty"`
	URL      string `json:"url"`
	Icon     string `json:"icon"`
}

// MediaView is a renderable media item; video items carry derived thumbnail
// and embed URLs.
type MediaView struct {
	Type         string `json:"type"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	EmbedURL     string `json:"embed_url,omitempty"`
}

// InquiryView is a renderable call-to-action button.
type InquiryView struct {
	Type       string `json:"type"`
	ButtonText string `json:"button_text"`
	Href       string `json:"href"`
	External   bool   `json:"external"`
}

// ProductImageView is one image in a product's set.
type ProductImageView struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
}

// ThumbnailStrip describes the two-slot preview strip above a product with
// its "+N more" affordance.
type ThumbnailStrip struct {
	Visible      []ProductImageView `json:"visible"`
	MoreCount    int                `json:"more_count"`
	OverlayLabel string             `json:"overlay_label,omitempty"`
	TextLink     bool               `json:"text_link,omitempty"`
	OpenIndex    int                `json:"open_index"`
}

// ProductView is a fully composed product/service block.
type ProductView struct {
	Title          string             `json:"title"`
	Description    RenderedText       `json:"description"`
	FullLineCount  int                `json:"full_line_count"`
	Collapsed      bool               `json:"collapsed"`
	Price          string             `json:"price,omitempty"`
	Category       string             `json:"category,omitempty"`
	Featured       bool               `json:"featured"`
	Images         []ProductImageView `json:"images"`
	ThumbnailStrip ThumbnailStrip     `json:"thumbnail_strip"`
	Inquiries      []InquiryView      `json:"inquiries"`
}

// ReviewView is a renderable review link.
type ReviewView struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// View is the complete public card view: resolved configuration plus every
// composed section, ready for a renderer that interprets nothing as markup.
type View struct {
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Headline    string         `json:"headline,omitempty"`
	Bio         string         `json:"bio,omitempty"`
	AvatarURL   string         `json:"avatar_url,omitempty"`
	Monogram    string         `json:"monogram,omitempty"`
	Resolved    ResolvedCard   `json:"resolved"`
	Contact     []ContactEntry `json:"contact"`
	SocialLinks []SocialLinkView `json:"social_links"`
	Media       []MediaView      `json:"media"`
	Products    []ProductView    `json:"products"`
	Reviews     []ReviewView     `json:"reviews"`
	ViewCount   int64            `json:"view_count"`
}

// NarrowViewportWidth is the threshold (logical pixels) under which the
// "+N more" affordance additionally renders as a text link.
const NarrowViewportWidth = 768

// Collapsed descriptions: more than maxDescriptionLines lines renders only
// the first collapsedDescriptionLines with an expand affordance.
const (
	maxDescriptionLines       = 5
	collapsedDescriptionLines = 4
)

// Compose builds the full public view from the card record and its
// sub-resources. viewportWidth selects the narrow-viewport affordances.
func Compose(rec Record, links []SocialLinkRecord, media []MediaRecord, products []ProductRecord, reviews []ReviewRecord, viewportWidth int) View {
	view := View{
		Slug:      rec.Slug,
		Title:     rec.Title,
		Headline:  Headline(rec.Position, rec.Company),
		Bio:       rec.Bio,
		AvatarURL: rec.AvatarURL,
		Monogram:  monogram(rec.Title),
		Resolved:  Resolve(rec.ThemeJSON, rec.LayoutJSON, rec.Shape),
		Contact:   ContactEntries(rec.Contact),
		ViewCount: rec.ViewCount,

		SocialLinks: make([]SocialLinkView, 0, len(links)),
		Media:       make([]MediaView, 0, len(media)),
		Products:    make([]ProductView, 0, len(products)),
		Reviews:     make([]ReviewView, 0, len(reviews)),
	}

	for _, l := range links {
		view.SocialLinks = append(view.SocialLinks, SocialLinkView{
			Platform: l.Platform,
			Handle:   l.Handle,
			URL:      l.URL,
			Icon:     PlatformIcon(l.Platform),
		})
	}

	for _, m := range media {
		mv := MediaView{
			Type:         m.Type,
			URL:          m.URL,
			Title:        m.Title,
			Description:  m.Description,
			ThumbnailURL: m.ThumbnailURL,
		}
		if m.Type == "video" {
			src := ClassifyVideo(m.URL)
			if mv.ThumbnailURL == "" {
				mv.ThumbnailURL = src.ThumbnailURL
			}
			mv.EmbedURL = src.EmbedURL
		}
		view.Media = append(view.Media, mv)
	}

	for _, p := range products {
		view.Products = append(view.Products, composeProduct(p, viewportWidth))
	}

	for _, r := range reviews {
		view.Reviews = append(view.Reviews, ReviewView{Title: r.Title, URL: r.URL})
	}

	return view
}

func composeProduct(p ProductRecord, viewportWidth int) ProductView {
	images := make([]ProductImageView, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ProductImageView{URL: img.URL, AltText: img.AltText})
	}

	inquiries := make([]InquiryView, 0, len(p.Inquiries))
	for _, q := range p.Inquiries {
		inquiries = append(inquiries, composeInquiry(q))
	}

	lines := strings.Split(p.Description, "\n")
	collapsed := len(lines) > maxDescriptionLines
	descriptionText := p.Description
	if collapsed {
		descriptionText = strings.Join(lines[:collapsedDescriptionLines], "\n")
	}

	return ProductView{
		Title:          p.Title,
		Description:    RenderText(descriptionText, p.TextAlignment),
		FullLineCount:  len(lines),
		Collapsed:      collapsed,
		Price:          p.Price,
		Category:       p.Category,
		Featured:       p.Featured,
		Images:         images,
		ThumbnailStrip: BuildThumbnailStrip(images, viewportWidth),
		Inquiries:      inquiries,
	}
}

// BuildThumbnailStrip shows at most two images; when more exist, the second
// slot is overlaid with the "more" affordance that opens the gallery at
// index 1. Narrow viewports spell out the count and add a text link below
// the strip; wide viewports show a bare plus.
func BuildThumbnailStrip(images []ProductImageView, viewportWidth int) ThumbnailStrip {
	strip := ThumbnailStrip{Visible: images, OpenIndex: 1}
	if len(images) > 2 {
		strip.Visible = images[:2]
		strip.MoreCount = len(images) - 2
		if viewportWidth < NarrowViewportWidth {
			strip.OverlayLabel = "+" + strconv.Itoa(strip.MoreCount) + " more images"
			strip.TextLink = true
		} else {
			strip.OverlayLabel = "+"
		}
	}
	return strip
}

// InquiryHref resolves a call-to-action target from its type and contact
// value. Unknown types behave like plain links: the contact value is the
// href as given.
func InquiryHref(inquiryType, contact string) (href string, external bool) {
	switch inquiryType {
	case "phone":
		return "tel:" + contact, false
	case "whatsapp":
		return WhatsAppLink(contact), false
	case "email":
		return "mailto:" + contact, false
	default:
		return contact, true
	}
}

func composeInquiry(q InquiryRecord) InquiryView {
	href, external := InquiryHref(q.Type, q.Contact)
	return InquiryView{
		Type:       q.Type,
		ButtonText: q.ButtonText,
		Href:       href,
		External:   external,
	}
}

// monogram is the avatar fallback: the upper-cased first rune of the title.
func monogram(title string) string {
	for _, r := range title {
		return strings.ToUpper(string(r))
	}
	return ""
}
