package card

import "strings"

// ContactKind tags a contact row so renderers can pick icon and behavior.
type ContactKind string

const (
	ContactEmail    ContactKind = "email"
	ContactAddress  ContactKind = "address"
	ContactPhone    ContactKind = "phone"
	ContactWhatsApp ContactKind = "whatsapp"
	ContactWebsite  ContactKind = "website"
)

// ContactFields carries the raw contact columns of a card.
type ContactFields struct {
	Email    string
	Phone    string
	WhatsApp string
	Website  string
	Address  string
	MapLink  string
}

// ContactEntry is a single renderable contact row.
type ContactEntry struct {
	Kind  ContactKind `json:"kind"`
	Label string      `json:"label"`
	Href  string      `json:"href,omitempty"`
}

// ContactEntries returns the card's contact rows in the fixed display order:
// email, address (linked to the map when a map link exists), phone, whatsapp,
// website. Empty fields are omitted entirely; there are no placeholders.
func ContactEntries(f ContactFields) []ContactEntry {
	entries := make([]ContactEntry, 0, 5)

	if f.Email != "" {
		entries = append(entries, ContactEntry{
			Kind:  ContactEmail,
			Label: f.Email,
			Href:  "mailto:" + f.Email,
		})
	}
	if f.Address != "" {
		entry := ContactEntry{Kind: ContactAddress, Label: f.Address}
		if mapLink := strings.TrimSpace(f.MapLink); mapLink != "" {
			entry.Href = mapLink
		}
		entries = append(entries, entry)
	}
	if f.Phone != "" {
		entries = append(entries, ContactEntry{
			Kind:  ContactPhone,
			Label: f.Phone,
			Href:  "tel:" + f.Phone,
		})
	}
	if f.WhatsApp != "" {
		entries = append(entries, ContactEntry{
			Kind:  ContactWhatsApp,
			Label: "Send message",
			Href:  WhatsAppLink(f.WhatsApp),
		})
	}
	if f.Website != "" {
		entries = append(entries, ContactEntry{
			Kind:  ContactWebsite,
			Label: f.Website,
			Href:  WebsiteLink(f.Website),
		})
	}

	return entries
}

// WhatsAppLink builds a wa.me link from a phone number, keeping digits only.
func WhatsAppLink(number string) string {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return "https://wa.me/" + digits.String()
}

// WebsiteLink prefixes bare domains with https; URLs that already carry a
// scheme pass through untouched.
func WebsiteLink(website string) string {
	if strings.HasPrefix(website, "http") {
		return website
	}
	return "https://" + website
}
