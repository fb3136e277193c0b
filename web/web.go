// Package web embeds the single-page chat client and serves it through gin.
package web

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static
var assets embed.FS

// Register mounts the client at the router root. API routes keep their own
// prefixes; everything here is static.
func Register(router *gin.Engine) {
	fileServer := http.FS(assets)

	router.GET("/", func(c *gin.Context) {
		c.FileFromFS("static/index.html", fileServer)
	})
	router.GET("/app.js", func(c *gin.Context) {
		c.FileFromFS("static/app.js", fileServer)
	})
	router.GET("/styles.css", func(c *gin.Context) {
		c.FileFromFS("static/styles.css", fileServer)
	})
}
