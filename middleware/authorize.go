package middleware

import (
	"food-delivery-api/authz"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Authorize gates every request, matched route or not, through the
// evaluator. It must run after Authenticate.
func Authorize(ev *authz.Evaluator, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		method, path := c.Request.Method, c.Request.URL.Path

		d := ev.Evaluate(c.Request.Context(), authz.Request{
			Method:    method,
			Path:      path,
			Identity:  id,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		if !d.Allowed() {
			AbortWithError(c, log, d.Err(method, path))
			return
		}
		c.Next()
	}
}
