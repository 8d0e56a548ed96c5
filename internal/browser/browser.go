// Package browser hands lessons that cannot be played natively over to the system web browser.
package browser

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/video"
)

// Open opens the URL with the platform's default handler
func Open(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}

// OpenEmbed renders the sandboxed embed page into a temporary file and opens it.  Returns the path of the page.
func OpenEmbed(e video.Embed) (string, error) {
	path, err := WriteEmbedPage(os.TempDir(), e)
	if err != nil {
		return "", err
	}
	log.Info("Opening embedded lesson in browser", "kind", e.Kind, "page", path)
	return path, Open("file://" + filepath.ToSlash(path))
}

// WriteEmbedPage renders the embed page into a new file within dir
func WriteEmbedPage(dir string, e video.Embed) (string, error) {
	f, err := os.CreateTemp(dir, "lectern-embed-*.html")
	if err != nil {
		return "", fmt.Errorf("failed to create embed page: %w", err)
	}
	defer f.Close()

	if err := video.RenderEmbedPage(f, e); err != nil {
		return "", fmt.Errorf("failed to render embed page: %w", err)
	}
	return f.Name(), nil
}
