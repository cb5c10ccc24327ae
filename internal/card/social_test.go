package card

import "testing"

func TestGenerateSocialURL(t *testing.T) {
	cases := []struct {
		platform, handle, want string
	}{
		{"Instagram", "jane", "https://instagram.com/jane"},
		{"LinkedIn", "jane-doe", "https://linkedin.com/in/jane-doe"},
		{"YouTube", "janedoe", "https://youtube.com/@janedoe"},
		{"TikTok", "janedoe", "https://tiktok.com/@janedoe"},
		{"Telegram", "janedoe", "https://t.me/janedoe"},
		{"WhatsApp", "15550100199", "https://wa.me/15550100199"},
		{"Mastodon", "https://mas.to/@jane", "https://mas.to/@jane"},
	}
	for _, tc := range cases {
		if got := GenerateSocialURL(tc.platform, tc.handle); got != tc.want {
			t.Errorf("GenerateSocialURL(%q, %q) = %q, want %q", tc.platform, tc.handle, got, tc.want)
		}
	}
}

func TestPlatformIcon_FallsBackToGenericLink(t *testing.T) {
	if got := PlatformIcon("GitHub"); got != "github" {
		t.Errorf("GitHub icon = %q", got)
	}
	if got := PlatformIcon("Website"); got != "globe" {
		t.Errorf("Website icon = %q", got)
	}
	if got := PlatformIcon("Mastodon"); got != "link" {
		t.Errorf("unknown platform icon = %q, want link", got)
	}
}

func TestApplySocialEdit_RegeneratesOnHandleChange(t *testing.T) {
	edit := ApplySocialEdit("Instagram", "jane", SocialEdit{
		Platform: "Instagram",
		Handle:   "jane.doe",
		URL:      "https://instagram.com/jane",
	})
	if edit.URL != "https://instagram.com/jane.doe" {
		t.Errorf("URL = %q, want regenerated from new handle", edit.URL)
	}
}

func TestApplySocialEdit_HandleChangeOverwritesManualURL(t *testing.T) {
	edit := ApplySocialEdit("Instagram", "jane", SocialEdit{
		Platform: "Instagram",
		Handle:   "janedoe",
		URL:      "https://example.com/custom",
	})
	if edit.URL != "https://instagram.com/janedoe" {
		t.Errorf("URL = %q, the derived URL wins over the manual one", edit.URL)
	}
}

func TestApplySocialEdit_UnchangedKeysKeepManualURL(t *testing.T) {
	edit := ApplySocialEdit("Instagram", "jane", SocialEdit{
		Platform: "Instagram",
		Handle:   "jane",
		URL:      "https://example.com/custom",
	})
	if edit.URL != "https://example.com/custom" {
		t.Errorf("URL = %q, want manual URL preserved", edit.URL)
	}
}

func TestApplySocialEdit_UnknownPlatformKeepsSubmittedURL(t *testing.T) {
	edit := ApplySocialEdit("Mastodon", "@jane@mas.to", SocialEdit{
		Platform: "Mastodon",
		Handle:   "@jane.doe@mas.to",
		URL:      "https://mas.to/@jane.doe",
	})
	if edit.URL != "https://mas.to/@jane.doe" {
		t.Errorf("URL = %q, no template means the submitted URL stands", edit.URL)
	}
}

func TestApplySocialEdit_EmptyHandleSkipsRegeneration(t *testing.T) {
	edit := ApplySocialEdit("Instagram", "jane", SocialEdit{
		Platform: "Instagram",
		Handle:   "",
		URL:      "https://instagram.com/jane",
	})
	if edit.URL != "https://instagram.com/jane" {
		t.Errorf("URL = %q, want untouched while handle is empty", edit.URL)
	}
}
