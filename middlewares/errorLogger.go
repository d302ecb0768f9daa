package middlewares

import (
	"github.com/PedrooFerraz/Inventory-app-sub000/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// CustomErrorLogger logs only requests that recorded errors.
func CustomErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			ctx := c.Request.Context()
			cid, _ := utils.GetCorrelationIdFromContext(ctx)
			fields := logrus.Fields{
				"method":         c.Request.Method,
				"path":           c.FullPath(),
				"status":         c.Writer.Status(),
				"correlation_id": cid,
			}
			if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
				fields["trace_id"] = sc.TraceID().String()
			}
			logger.WithFields(fields).Error(c.Errors.String())
		}
	}
}
