package middlewares

import (
	"strings"

	"github.com/PedrooFerraz/Inventory-app-sub000/utils"
	"github.com/gin-gonic/gin"
)

const HeaderOperatorCode = "X-Operator-Code"

// OperatorMiddleware records who is counting. Counts submitted without an
// explicit operator are attributed to this code.
func OperatorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := strings.TrimSpace(c.GetHeader(HeaderOperatorCode))
		if code == "" {
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(utils.SetOperatorCodeInContext(c.Request.Context(), code))
		c.Next()
	}
}
