package apiserver

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed frontend
var embeddedFrontend embed.FS

func frontendFS(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embeddedFrontend, "frontend")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("frontend directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("frontend directory %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// serveStaticUI serves the frontend and handles SPA routing
func (s *Server) serveStaticUI(w http.ResponseWriter, r *http.Request) {
	// path.Clean on a rooted path cannot escape the root
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}

	if info, err := fs.Stat(s.static, name); err == nil && !info.IsDir() {
		http.ServeFileFS(w, r, s.static, name)
		return
	}

	// For SPA routing, serve index.html for non-existent files that aren't assets
	if !isAssetPath(name) {
		if _, err := fs.Stat(s.static, "index.html"); err == nil {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			http.ServeFileFS(w, r, s.static, "index.html")
			return
		}
	}

	http.NotFound(w, r)
}

// isAssetPath checks if a path looks like an asset (JS, CSS, image, etc.)
func isAssetPath(path string) bool {
	assetExtensions := map[string]bool{
		".js":    true,
		".css":   true,
		".map":   true,
		".png":   true,
		".jpg":   true,
		".jpeg":  true,
		".gif":   true,
		".svg":   true,
		".ico":   true,
		".woff":  true,
		".woff2": true,
		".ttf":   true,
	}
	return assetExtensions[strings.ToLower(filepath.Ext(path))]
}
