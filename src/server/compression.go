package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"
)

type zstdResponseWriter struct {
	gin.ResponseWriter
	encoder *zstd.Encoder
}

func (w *zstdResponseWriter) Write(b []byte) (int, error) {
	return w.encoder.Write(b)
}

func (w *zstdResponseWriter) WriteString(s string) (int, error) {
	return w.encoder.Write([]byte(s))
}

// -----------------------------------------------------------------------------

// ZstdMiddleware compresses responses for clients that accept zstd.
func ZstdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "zstd") {
			c.Next()
			return
		}

		encoder, err := zstd.NewWriter(c.Writer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Encoding", "zstd")
		c.Header("Vary", "Accept-Encoding")
		c.Writer.Header().Del("Content-Length")

		orig := c.Writer
		c.Writer = &zstdResponseWriter{ResponseWriter: orig, encoder: encoder}
		defer func() {
			encoder.Close()
			c.Writer = orig
		}()

		c.Next()
	}
}
