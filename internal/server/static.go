package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// serveFrontend serves files from the frontend bundle and falls back to
// index.html so client-side routes resolve.
func (a *App) serveFrontend(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		writeError(c, http.StatusNotFound, "Not Found")
		return
	}
	root := strings.TrimSpace(a.cfg.FrontendDir)
	if root == "" {
		writeError(c, http.StatusNotFound, "File not found")
		return
	}

	// path.Clean on a rooted path drops every "..".
	rel := strings.TrimPrefix(path.Clean("/"+c.Request.URL.Path), "/")
	if rel != "" {
		candidate := filepath.Join(root, filepath.FromSlash(rel))
		if serveFile(c, candidate) {
			return
		}
	}

	if a.serveIndex(c) {
		return
	}
	writeError(c, http.StatusNotFound, "File not found")
}

// serveIndex writes the bundle's index.html, reporting false when there is
// no bundle.
func (a *App) serveIndex(c *gin.Context) bool {
	root := strings.TrimSpace(a.cfg.FrontendDir)
	if root == "" {
		return false
	}
	return serveFile(c, filepath.Join(root, "index.html"))
}

// serveFile writes name when it is a regular file. http.ServeFile is avoided
// because it redirects requests for /index.html.
func serveFile(c *gin.Context, name string) bool {
	file, err := os.Open(name)
	if err != nil {
		return false
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
	return true
}
