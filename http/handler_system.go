package http

import (
	"runtime"
	"time"

	"jabberwocky238/houselist/listing"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// HealthHandler handles GET /health.
func HealthHandler(c *gin.Context) {
	OK(c, gin.H{"status": "ok"})
}

// StatusHandler returns the handler for GET /status, reporting runtime
// information and the session's load state.
func StatusHandler(session *listing.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		snap := session.Snapshot()
		OK(c, gin.H{
			"uptime":      time.Since(startTime).String(),
			"goroutines":  runtime.NumGoroutine(),
			"go_version":  runtime.Version(),
			"alloc_bytes": mem.Alloc,
			"load_state":  snap.State,
			"records":     snap.Total,
		})
	}
}
