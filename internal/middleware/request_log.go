package middleware

import (
	"time"

	"dailyreport/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLog logs every request and feeds the HTTP metrics.
func RequestLog(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(method, c.FullPath(), status, latency.Seconds())

		entry := log.WithFields(logrus.Fields{
			"method":  method,
			"path":    path,
			"status":  status,
			"latency": latency.String(),
			"ip":      c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("api request")
		case status >= 400:
			entry.Warn("api request")
		default:
			entry.Info("api request")
		}
	}
}
