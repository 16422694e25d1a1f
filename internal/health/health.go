// Package health exposes the keep-alive endpoint the hosting platform
// polls to consider the bot process healthy.
package health

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PingFunc checks a backing dependency, typically the database pool.
type PingFunc func(ctx context.Context) error

func Handler(ping PingFunc) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "bot is running"})
	})

	r.GET("/healthz", func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

func NewServer(addr string, ping PingFunc) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: Handler(ping),
	}
}
