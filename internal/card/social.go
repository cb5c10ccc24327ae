package card

// Social platform identifiers are free-form strings in storage; the fixed
// maps below cover the set the editor offers. Everything else falls back to
// preserving whatever the user typed.

var socialURLPrefixes = map[string]string{
	"Instagram": "https://instagram.com/",
	"LinkedIn":  "https://linkedin.com/in/",
	"GitHub":    "https://github.com/",
	"Twitter":   "https://twitter.com/",
	"Facebook":  "https://facebook.com/",
	"YouTube":   "https://youtube.com/@",
	"TikTok":    "https://tiktok.com/@",
	"Telegram":  "https://t.me/",
	"WhatsApp":  "https://wa.me/",
}

var socialIcons = map[string]string{
	"Instagram": "instagram",
	"LinkedIn":  "linkedin",
	"GitHub":    "github",
	"Twitter":   "twitter",
	"Facebook":  "facebook",
	"YouTube":   "youtube",
	"TikTok":    "tiktok",
	"Telegram":  "telegram",
	"WhatsApp":  "whatsapp",
	"Website":   "globe",
}

// GenerateSocialURL applies the platform's canonical URL template to the
// handle. Unknown platforms return the handle unchanged so hand-entered URLs
// survive.
func GenerateSocialURL(platform, handle string) string {
	prefix, ok := socialURLPrefixes[platform]
	if !ok {
		return handle
	}
	return prefix + handle
}

// PlatformIcon returns the icon slug for a platform, with a generic link
// icon for anything unrecognized.
func PlatformIcon(platform string) string {
	if icon, ok := socialIcons[platform]; ok {
		return icon
	}
	return "link"
}

// KnownPlatform reports whether the platform has a canonical URL template.
func KnownPlatform(platform string) bool {
	_, ok := socialURLPrefixes[platform]
	return ok
}

// SocialEdit describes one save of a social link row from the editor.
type SocialEdit struct {
	Platform string
	Handle   string
	URL      string
}

// ApplySocialEdit implements the "derived overrides manual" policy: the URL
// is regenerated from platform+handle only when one of them changed since
// the stored row (and both are set). A hand-edited URL is kept as typed until
// the next platform/handle change silently overwrites it. Platforms without
// a URL template never overwrite: the submitted URL stands as given.
func ApplySocialEdit(storedPlatform, storedHandle string, edit SocialEdit) SocialEdit {
	if edit.Platform != storedPlatform || edit.Handle != storedHandle {
		if edit.Handle != "" && KnownPlatform(edit.Platform) {
			edit.URL = GenerateSocialURL(edit.Platform, edit.Handle)
		}
	}
	return edit
}
