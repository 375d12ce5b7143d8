package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/evtsrc/version"
)

var started = time.Now()

// BuildReport is the /info response body.
type BuildReport struct {
	Service string `json:"service"`
	version.Info
	Uptime string `json:"uptime"`
}

// Info reports the build and uptime.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, BuildReport{
			Service: serviceName,
			Info:    version.Get(),
			Uptime:  uptime().String(),
		})
	}
}

// Alive reports only that the process is serving HTTP.
func Alive(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "alive",
			"service": serviceName,
			"uptime":  uptime().String(),
		})
	}
}

func uptime() time.Duration { return time.Since(started).Truncate(time.Second) }
