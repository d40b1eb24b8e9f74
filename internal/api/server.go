package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer builds the gin engine with every route registered.
func NewServer(handler *Handler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())
	r.Use(cors())

	setupRoutes(r, handler)
	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.Health)

	scraper := r.Group("/scraper")
	{
		scraper.GET("/sources", handler.ListSources)
		scraper.POST("/run", handler.RunScrape)
		scraper.POST("/urls", handler.ScrapeURLs)
		scraper.GET("/logs", handler.ListProcessLogs)
	}

	approval := r.Group("/approval")
	{
		approval.GET("/pending", handler.ListPending)
		approval.GET("/approved", handler.ListApproved)
		approval.POST("/approve/:rawId", handler.Approve)
		approval.POST("/bulk", handler.BulkApprove)
		approval.DELETE("/reject/:rawId", handler.Reject)
		approval.POST("/publish/:filteredId", handler.Publish)
		approval.POST("/reprocess/:filteredId", handler.Reprocess)
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if logger == nil {
			return
		}

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			args = append(args, "error", errs.String())
		}
		if c.Writer.Status() >= 500 {
			logger.Error("request failed", args...)
			return
		}
		logger.Info("request served", args...)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
