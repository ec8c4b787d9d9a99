package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/content-engine/logging"
)

// saveEvery is how many analysis requests pass between statistics writes.
const saveEvery = 100

// StatsMiddleware tracks visitors and the latency and outcome of every
// analysis request under /api, except the statistics and health routes.
func StatsMiddleware(stats *logging.Statistics, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		stats.TrackVisitor(c.ClientIP())

		c.Next()

		route := c.FullPath()
		if !strings.HasPrefix(route, "/api/") || route == "/api/health" || route == "/api/statistics" {
			return
		}
		loadTime := float64(time.Since(start).Milliseconds())
		stats.TrackAnalysis(route, loadTime, c.Writer.Status() >= 400)

		if stats.Requests()%saveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					logger.WithError(err).Warn("statistics save failed")
				}
			}()
		}
	}
}
