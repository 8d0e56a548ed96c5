// Package video classifies lesson video references and renders embeds for third-party players.
package video

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Kind is the playback strategy selected for a video URL
type Kind string

const (
	KindYouTube    Kind = "embed-youtube"
	KindVimeo      Kind = "embed-vimeo"
	KindDirectFile Kind = "direct-file"
	KindUnknown    Kind = "unknown"
)

// Source is the classification of a video URL
type Source struct {
	Kind Kind `json:"kind"`
	// ProviderID is the provider's identifier for the video.  Nil for embeddable providers when the URL matched the
	// provider's domain but no identifier could be extracted, and always nil for other kinds.
	ProviderID *string `json:"providerId"`
	URL        string  `json:"url"`
	// SupportsProgressTracking is true only when playback position can be observed
	SupportsProgressTracking bool `json:"supportsProgressTracking"`
}

// IsEmbed reports whether the source plays in a third-party embedded player
func (s Source) IsEmbed() bool {
	return s.Kind == KindYouTube || s.Kind == KindVimeo
}

// Playable reports whether anything can be rendered for the source
func (s Source) Playable() bool {
	switch s.Kind {
	case KindDirectFile:
		return true
	case KindYouTube, KindVimeo:
		return s.ProviderID != nil
	default:
		return false
	}
}

var (
	youtubeHosts = map[string]bool{
		"youtube.com":              true,
		"www.youtube.com":          true,
		"m.youtube.com":            true,
		"music.youtube.com":        true,
		"youtube-nocookie.com":     true,
		"www.youtube-nocookie.com": true,
		"youtu.be":                 true,
	}
	vimeoHosts = map[string]bool{
		"vimeo.com":        true,
		"www.vimeo.com":    true,
		"player.vimeo.com": true,
	}
	directFileExtensions = map[string]bool{
		".mp4":  true,
		".m4v":  true,
		".webm": true,
		".ogv":  true,
		".ogg":  true,
		".mov":  true,
		".mkv":  true,
		".m3u8": true,
	}

	youtubeID        = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	youtubePathID    = regexp.MustCompile(`^/(?:embed|shorts|live|v)/([A-Za-z0-9_-]{11})(?:[/?]|$)`)
	vimeoNumericPath = regexp.MustCompile(`^/(?:video/|channels/[^/]+/|groups/[^/]+/videos/|album/\d+/video/)?(\d+)(?:[/?]|$)`)
)

// Resolve classifies a video URL.  Embeddable provider domains are matched first, then direct-file extensions;
// anything else is unknown.
func Resolve(rawURL string) Source {
	src := Source{Kind: KindUnknown, URL: strings.TrimSpace(rawURL)}

	u, err := url.Parse(src.URL)
	if err != nil || u.Host == "" {
		return src
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return src
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case youtubeHosts[host]:
		src.Kind = KindYouTube
		src.ProviderID = youtubeVideoID(host, u)
	case vimeoHosts[host]:
		src.Kind = KindVimeo
		src.ProviderID = vimeoVideoID(u)
	case directFileExtensions[strings.ToLower(path.Ext(u.Path))]:
		src.Kind = KindDirectFile
		src.SupportsProgressTracking = true
	}

	return src
}

func youtubeVideoID(host string, u *url.URL) *string {
	if host == "youtu.be" {
		id := strings.Trim(u.Path, "/")
		if youtubeID.MatchString(id) {
			return &id
		}
		return nil
	}

	if id := u.Query().Get("v"); youtubeID.MatchString(id) {
		return &id
	}
	if m := youtubePathID.FindStringSubmatch(u.Path); m != nil {
		return &m[1]
	}
	return nil
}

func vimeoVideoID(u *url.URL) *string {
	if m := vimeoNumericPath.FindStringSubmatch(u.Path); m != nil {
		return &m[1]
	}
	return nil
}
