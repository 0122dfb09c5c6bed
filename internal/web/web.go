// Package web serves the embedded browser UI: dashboard, settings and the
// not-found page. All data flows through the JSON API; these pages are static
// shells with a small amount of vanilla JS.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html assets/*
var content embed.FS

// Register mounts the UI routes and the 404 handler on the router.
func Register(r *gin.Engine) {
	tmpl := template.Must(template.ParseFS(content, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	assets, err := fs.Sub(content, "assets")
	if err != nil {
		panic(err)
	}
	r.StaticFS("/assets", http.FS(assets))

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "dashboard.html", gin.H{"Page": "dashboard"})
	})
	r.GET("/settings", func(c *gin.Context) {
		c.HTML(http.StatusOK, "settings.html", gin.H{"Page": "settings"})
	})

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.HTML(http.StatusNotFound, "notfound.html", nil)
	})
}
