package middleware

import (
	"strconv"
	"time"

	"github.com/agromart/ledger/pkg/metricspkg"
	"github.com/gin-gonic/gin"
)

// Metrics records the duration of every served request on the collector.
// The route template is used as the path label to keep cardinality bounded.
func Metrics(collector *metricspkg.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		collector.ObserveRequest(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
