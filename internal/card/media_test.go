package card

import "testing"

func TestClassifyVideo(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want VideoSource
	}{
		{
			name: "youtube watch",
			url:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: VideoSource{
				ThumbnailURL: "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
				EmbedURL:     "https://www.youtube.com/embed/dQw4w9WgXcQ",
			},
		},
		{
			name: "youtube watch with extra params",
			url:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s",
			want: VideoSource{
				ThumbnailURL: "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
				EmbedURL:     "https://www.youtube.com/embed/dQw4w9WgXcQ",
			},
		},
		{
			name: "youtube short link",
			url:  "https://youtu.be/dQw4w9WgXcQ?si=abc",
			want: VideoSource{
				ThumbnailURL: "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
				EmbedURL:     "https://www.youtube.com/embed/dQw4w9WgXcQ",
			},
		},
		{
			name: "vimeo",
			url:  "https://vimeo.com/76979871",
			want: VideoSource{EmbedURL: "https://player.vimeo.com/video/76979871"},
		},
		{
			name: "unknown host falls back to original URL",
			url:  "https://example.com/videos/clip.mp4",
			want: VideoSource{EmbedURL: "https://example.com/videos/clip.mp4"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyVideo(tc.url); got != tc.want {
				t.Errorf("ClassifyVideo(%q) = %+v, want %+v", tc.url, got, tc.want)
			}
		})
	}
}
