package video

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"
)

// ErrNotEmbeddable is returned when a source is not hosted by an embeddable provider
var ErrNotEmbeddable = errors.New("video source is not embeddable")

// Embed describes a sandboxed third-party player for an embeddable source.  Embedded players report no playback
// events, so lessons shown this way are never progress tracked.
type Embed struct {
	Kind  Kind
	Title string
	// URL is the canonical embed URL, empty when the provider id is unknown
	URL string
}

// CanLoad reports whether the provider's player can be shown
func (e Embed) CanLoad() bool {
	return e.URL != ""
}

// EmbedFor builds the embed description for an embeddable source
func EmbedFor(src Source, title string) (Embed, error) {
	if !src.IsEmbed() {
		return Embed{}, fmt.Errorf("%w: %s", ErrNotEmbeddable, src.Kind)
	}

	e := Embed{Kind: src.Kind, Title: title}
	if src.ProviderID == nil {
		return e, nil
	}

	id := url.PathEscape(*src.ProviderID)
	switch src.Kind {
	case KindYouTube:
		e.URL = "https://www.youtube-nocookie.com/embed/" + id + "?rel=0&modestbranding=1"
	case KindVimeo:
		e.URL = "https://player.vimeo.com/video/" + id + "?dnt=1"
	}
	return e, nil
}

var embedPage = template.Must(template.New("embed").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="Content-Security-Policy" content="default-src 'none'; frame-src https://www.youtube-nocookie.com https://player.vimeo.com; style-src 'unsafe-inline'">
<title>{{.Title}}</title>
<style>
html, body { margin: 0; height: 100%; background: #111; color: #ddd; font-family: sans-serif; }
.frame { position: relative; width: 100%; height: 100%; }
.frame iframe { position: absolute; inset: 0; width: 100%; height: 100%; border: 0; }
.unavailable { display: flex; height: 100%; align-items: center; justify-content: center; }
</style>
</head>
<body>
{{- if .URL}}
<div class="frame">
<iframe src="{{.URL}}" title="{{.Title}}"
  sandbox="allow-scripts allow-same-origin allow-presentation"
  allow="fullscreen; picture-in-picture"
  referrerpolicy="strict-origin-when-cross-origin"
  allowfullscreen></iframe>
</div>
{{- else}}
<div class="unavailable"><p>This video cannot be loaded. The link does not identify a video.</p></div>
{{- end}}
</body>
</html>
`))

// RenderEmbedPage writes a standalone HTML page hosting the sandboxed player, or a "cannot load" notice when the
// provider id is unknown.
func RenderEmbedPage(w io.Writer, e Embed) error {
	return embedPage.Execute(w, e)
}
