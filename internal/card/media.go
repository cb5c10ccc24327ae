package card

import "strings"

// VideoSource is the classification result for a stored video URL.
// EmbedURL is always set; for unrecognized hosts it is the original URL and
// the renderer falls back to opening it as a plain external link behind a
// generic play icon.
type VideoSource struct {
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	EmbedURL     string `json:"embed_url"`
}

// ClassifyVideo derives thumbnail and embed URLs for known video hosts.
// ID extraction is a plain string split on the host marker: a URL that
// carries the marker but a mangled ID yields a malformed-but-harmless URL
// rather than an error. This function never fails.
func ClassifyVideo(rawURL string) VideoSource {
	if strings.Contains(rawURL, "youtube.com/watch?v=") {
		id := splitToken(rawURL, "v=", "&")
		return VideoSource{
			ThumbnailURL: "https://img.youtube.com/vi/" + id + "/hqdefault.jpg",
			EmbedURL:     "https://www.youtube.com/embed/" + id,
		}
	}
	if strings.Contains(rawURL, "youtu.be/") {
		id := splitToken(rawURL, "youtu.be/", "?")
		return VideoSource{
			ThumbnailURL: "https://img.youtube.com/vi/" + id + "/hqdefault.jpg",
			EmbedURL:     "https://www.youtube.com/embed/" + id,
		}
	}
	if strings.Contains(rawURL, "vimeo.com/") {
		id := splitToken(rawURL, "vimeo.com/", "?")
		// Vimeo offers no thumbnail derivable from the URL alone.
		return VideoSource{EmbedURL: "https://player.vimeo.com/video/" + id}
	}
	return VideoSource{EmbedURL: rawURL}
}

// splitToken takes everything after the first marker up to the first
// occurrence of stop.
func splitToken(s, marker, stop string) string {
	_, after, found := strings.Cut(s, marker)
	if !found {
		return ""
	}
	token, _, _ := strings.Cut(after, stop)
	return token
}
