package video

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		kind       Kind
		providerID string // empty means nil
		tracked    bool
	}{
		{"YouTubeWatch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", KindYouTube, "dQw4w9WgXcQ", false},
		{"YouTubeShort", "https://youtu.be/dQw4w9WgXcQ", KindYouTube, "dQw4w9WgXcQ", false},
		{"YouTubeEmbed", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ?start=3", KindYouTube, "dQw4w9WgXcQ", false},
		{"YouTubeShorts", "https://m.youtube.com/shorts/dQw4w9WgXcQ", KindYouTube, "dQw4w9WgXcQ", false},
		{"YouTubeChannel", "https://www.youtube.com/@somechannel", KindYouTube, "", false},
		{"Vimeo", "https://vimeo.com/76979871", KindVimeo, "76979871", false},
		{"VimeoPlayer", "https://player.vimeo.com/video/76979871?h=abc", KindVimeo, "76979871", false},
		{"VimeoChannel", "https://vimeo.com/channels/staffpicks/76979871", KindVimeo, "76979871", false},
		{"VimeoNoID", "https://vimeo.com/about", KindVimeo, "", false},
		{"DirectMP4", "https://cdn.example.com/lessons/intro.mp4", KindDirectFile, "", true},
		{"DirectUpperCaseWithQuery", "https://cdn.example.com/intro.WEBM?token=abc", KindDirectFile, "", true},
		{"HLS", "https://cdn.example.com/stream/index.m3u8", KindDirectFile, "", true},
		{"Unknown", "https://example.com/video", KindUnknown, "", false},
		{"NotAURL", "lesson one", KindUnknown, "", false},
		{"Empty", "", KindUnknown, "", false},
		{"FileScheme", "file:///home/me/video.mp4", KindUnknown, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := Resolve(tt.url)
			assert.Equal(t, tt.kind, src.Kind)
			assert.Equal(t, tt.tracked, src.SupportsProgressTracking)
			if tt.providerID == "" {
				assert.Nil(t, src.ProviderID)
			} else {
				require.NotNil(t, src.ProviderID)
				assert.Equal(t, tt.providerID, *src.ProviderID)
			}
		})
	}
}

func TestSourcePlayable(t *testing.T) {
	assert.True(t, Resolve("https://youtu.be/dQw4w9WgXcQ").Playable())
	assert.False(t, Resolve("https://vimeo.com/about").Playable())
	assert.True(t, Resolve("https://cdn.example.com/a.mp4").Playable())
	assert.False(t, Resolve("https://example.com/video").Playable())
}

func TestEmbedFor(t *testing.T) {
	e, err := EmbedFor(Resolve("https://www.youtube.com/watch?v=dQw4w9WgXcQ"), "Intro")
	require.NoError(t, err)
	assert.True(t, e.CanLoad())
	assert.Equal(t, "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ?rel=0&modestbranding=1", e.URL)

	e, err = EmbedFor(Resolve("https://vimeo.com/76979871"), "Intro")
	require.NoError(t, err)
	assert.Equal(t, "https://player.vimeo.com/video/76979871?dnt=1", e.URL)

	e, err = EmbedFor(Resolve("https://vimeo.com/about"), "Intro")
	require.NoError(t, err)
	assert.False(t, e.CanLoad())

	_, err = EmbedFor(Resolve("https://cdn.example.com/a.mp4"), "Intro")
	assert.True(t, errors.Is(err, ErrNotEmbeddable))
}

func TestRenderEmbedPage(t *testing.T) {
	t.Run("Sandboxed", func(t *testing.T) {
		e, _ := EmbedFor(Resolve("https://youtu.be/dQw4w9WgXcQ"), `Week 1 <script>`)
		var buf bytes.Buffer
		require.NoError(t, RenderEmbedPage(&buf, e))

		page := buf.String()
		assert.Contains(t, page, `sandbox="allow-scripts allow-same-origin allow-presentation"`)
		assert.Contains(t, page, "youtube-nocookie.com/embed/dQw4w9WgXcQ")
		assert.Contains(t, page, "Week 1 &lt;script&gt;")
		assert.NotContains(t, page, "<script>")
	})

	t.Run("CannotLoad", func(t *testing.T) {
		e, _ := EmbedFor(Resolve("https://vimeo.com/about"), "Week 2")
		var buf bytes.Buffer
		require.NoError(t, RenderEmbedPage(&buf, e))

		page := buf.String()
		assert.NotContains(t, page, "<iframe")
		assert.Contains(t, page, "cannot be loaded")
	})
}
