package card

import "testing"

func TestResolve_MissingBlobsUseDocumentedDefaults(t *testing.T) {
	resolved := Resolve(nil, nil, "")

	wantTheme := Theme{
		Primary:    "#3B82F6",
		Secondary:  "#1E40AF",
		Background: "#FFFFFF",
		Text:       "#1F2937",
		Name:       "Default",
	}
	if resolved.Theme != wantTheme {
		t.Errorf("theme = %+v, want %+v", resolved.Theme, wantTheme)
	}

	wantLayout := Layout{Style: "modern", Alignment: "center", Font: "Inter"}
	if resolved.Layout != wantLayout {
		t.Errorf("layout = %+v, want %+v", resolved.Layout, wantLayout)
	}

	if resolved.ShapeClass != "rounded-2xl" {
		t.Errorf("shape class = %q, want default rounded-2xl", resolved.ShapeClass)
	}
}

func TestResolve_MalformedBlobsFallBack(t *testing.T) {
	resolved := Resolve([]byte(`"just a string"`), []byte(`[1,2,3]`), "rounded")

	if resolved.Theme != DefaultTheme() {
		t.Errorf("malformed theme should resolve to default, got %+v", resolved.Theme)
	}
	if resolved.Layout != DefaultLayout() {
		t.Errorf("malformed layout should resolve to default, got %+v", resolved.Layout)
	}
}

func TestResolve_PartialBlobsFillMissingFields(t *testing.T) {
	resolved := Resolve([]byte(`{"primary":"#000000"}`), []byte(`{"alignment":"left"}`), "")

	if resolved.Theme.Primary != "#000000" {
		t.Errorf("primary = %q, want #000000", resolved.Theme.Primary)
	}
	if resolved.Theme.Background != "#FFFFFF" {
		t.Errorf("background = %q, want default #FFFFFF", resolved.Theme.Background)
	}
	if resolved.Layout.Alignment != "left" {
		t.Errorf("alignment = %q, want left", resolved.Layout.Alignment)
	}
	if resolved.Layout.Font != "Inter" {
		t.Errorf("font = %q, want default Inter", resolved.Layout.Font)
	}
}

func TestShapeClass(t *testing.T) {
	cases := []struct {
		shape string
		want  string
	}{
		{"rounded", "rounded-3xl"},
		{"circle", "rounded-full aspect-square"},
		// hexagon deliberately shares the rounded treatment.
		{"hexagon", "rounded-3xl"},
		{"rectangle", "rounded-2xl"},
		{"", "rounded-2xl"},
		{"blob", "rounded-2xl"},
	}
	for _, tc := range cases {
		if got := ShapeClass(tc.shape); got != tc.want {
			t.Errorf("ShapeClass(%q) = %q, want %q", tc.shape, got, tc.want)
		}
	}
}

func TestAlignmentClass(t *testing.T) {
	if got := AlignmentClass("left"); got != "flex flex-col items-start text-left" {
		t.Errorf("left alignment = %q", got)
	}
	if got := AlignmentClass("right"); got != "flex flex-col items-end text-right" {
		t.Errorf("right alignment = %q", got)
	}
	for _, alignment := range []string{"center", "", "diagonal"} {
		if got := AlignmentClass(alignment); got != "flex flex-col items-center text-center" {
			t.Errorf("AlignmentClass(%q) = %q, want centered", alignment, got)
		}
	}
}

func TestStyleClass_UnrecognizedFallsToDefault(t *testing.T) {
	def := StyleClass("")
	if def != StyleClass("futuristic") {
		t.Errorf("unrecognized style should share the default preset")
	}
	for _, style := range []string{"classic", "minimal", "creative"} {
		if StyleClass(style) == def {
			t.Errorf("style %q should differ from the default preset", style)
		}
	}
}

func TestHeadline(t *testing.T) {
	cases := []struct {
		position, company, want string
	}{
		{"Engineer", "Acme", "Engineer at Acme"},
		{"Engineer", "", "Engineer"},
		{"", "Acme", "Acme"},
		{"", "", ""},
	}
	for _, tc := range cases {
		if got := Headline(tc.position, tc.company); got != tc.want {
			t.Errorf("Headline(%q, %q) = %q, want %q", tc.position, tc.company, got, tc.want)
		}
	}
}

func TestContactEntries_OrderAndOmission(t *testing.T) {
	entries := ContactEntries(ContactFields{
		Email:    "jane@example.com",
		Phone:    "+1 (555) 010-0199",
		WhatsApp: "+1 (555) 010-0199",
		Website:  "example.com",
		Address:  "1 Main St",
		MapLink:  "https://maps.example.com/x",
	})

	wantOrder := []ContactKind{ContactEmail, ContactAddress, ContactPhone, ContactWhatsApp, ContactWebsite}
	if len(entries) != len(wantOrder) {
		t.Fatalf("got %d entries, want %d", len(entries), len(wantOrder))
	}
	for i, kind := range wantOrder {
		if entries[i].Kind != kind {
			t.Errorf("entry %d kind = %q, want %q", i, entries[i].Kind, kind)
		}
	}

	if entries[1].Href != "https://maps.example.com/x" {
		t.Errorf("address href = %q, want map link", entries[1].Href)
	}
	if entries[3].Href != "https://wa.me/15550100199" {
		t.Errorf("whatsapp href = %q, want digits-only wa.me link", entries[3].Href)
	}
	if entries[4].Href != "https://example.com" {
		t.Errorf("website href = %q, want https-prefixed", entries[4].Href)
	}

	empty := ContactEntries(ContactFields{})
	if len(empty) != 0 {
		t.Errorf("empty fields should render no entries, got %d", len(empty))
	}
}

func TestContactEntries_AddressWithoutMapLink(t *testing.T) {
	entries := ContactEntries(ContactFields{Address: "1 Main St", MapLink: "   "})
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Href != "" {
		t.Errorf("blank map link should leave address unlinked, got %q", entries[0].Href)
	}
}
