package middlewares

import (
	"strings"

	"github.com/PedrooFerraz/Inventory-app-sub000/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderCorrelationId = "X-Correlation-Id"

// CorrelationMiddleware attaches one correlation id per request, taken from
// the caller when present, and echoes it back.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := strings.TrimSpace(c.GetHeader(HeaderCorrelationId))
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header(HeaderCorrelationId, cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}
