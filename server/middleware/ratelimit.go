package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/evtsrc/errors"
	"github.com/kbukum/evtsrc/resilience"
)

// RateLimit returns a Gin middleware that refuses requests with 429 once
// rl's bucket is empty. The bucket is shared by every caller of the route.
func RateLimit(rl *resilience.RateLimiter) gin.HandlerFunc {
	retryAfter := "1"
	if rl.Enabled() {
		retryAfter = strconv.Itoa(int(math.Max(1, math.Ceil(1/rl.Rate()))))
	}

	return func(c *gin.Context) {
		if !rl.Allow() {
			err := apperrors.RateLimited(rl.Name())
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
			return
		}
		c.Next()
	}
}
