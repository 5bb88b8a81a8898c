package http

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck is one named dependency probed by GET /health.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// PingCheck probes a store through its Ping method.
func PingCheck(name string, p Pinger) HealthCheck {
	return HealthCheck{Name: name, Probe: p.Ping}
}

// DirCheck requires dir to exist; uploaded photos and archives are written
// there.
func DirCheck(name, dir string) HealthCheck {
	return HealthCheck{Name: name, Probe: func(context.Context) error {
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	}}
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	version string
	checks  []HealthCheck
	timeout time.Duration
}

func NewHealthController(version string, checks ...HealthCheck) *HealthController {
	return &HealthController{version: version, checks: checks, timeout: 2 * time.Second}
}

// Status handles GET /health. Any failing check turns the answer into 503.
func (h *HealthController) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  make(map[string]string, len(h.checks)),
	}
	for _, check := range h.checks {
		if err := check.Probe(ctx); err != nil {
			resp.Checks[check.Name] = "error: " + err.Error()
			resp.Status = "unhealthy"
			continue
		}
		resp.Checks[check.Name] = "ok"
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.IndentedJSON(code, resp)
}

// Ping handles GET /ping
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
