// Package server exposes the SOAP note API over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/controller"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/logging"
)

const requestIDHeader = "X-Request-ID"

// NewRouter registers the API routes of c on a new gin engine.
func NewRouter(c *controller.SOAPController) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), cors())

	router.GET("/", c.Root)
	router.GET("/health", c.Health)
	router.POST("/generate_soap_note", c.GenerateSOAPNote)

	return router
}

// cors allows any origin to call the API.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger stores a request scoped logger in the request context and
// logs each request once it completes.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		ctx := c.Request.Context()
		logger := logging.From(ctx).With("request_id", requestID)
		c.Request = c.Request.WithContext(logging.With(ctx, logger))

		started := time.Now()
		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(started),
		)
	}
}
