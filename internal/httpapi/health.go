package httpapi

import (
	"fmt"

	"github.com/webforge/crawlkit/internal/resource"
)

// ComponentHealth is the shared shape behind both `GET
// /api/health/detailed` and the CLI's `health` command — one check, two
// transports.
type ComponentHealth struct {
	Component string `json:"component"`
	Status    string `json:"status"` // "ok" | "degraded" | "unavailable"
	Detail    string `json:"detail,omitempty"`
}

// CheckHealth inspects the shared resource.Manager the way the teacher's
// own startup checks inspected its page pool and memory limiter, just
// generalized across every guarded resource instead of one.
func CheckHealth(resources *resource.Manager, gcThreshold float64) []ComponentHealth {
	results := []ComponentHealth{{Component: "config", Status: "ok"}}

	if resources == nil {
		return append(results, ComponentHealth{Component: "resource_manager", Status: "unavailable"})
	}

	if resources.Memory != nil {
		pressure := resources.Memory.Pressure()
		status := "ok"
		if pressure >= gcThreshold {
			status = "degraded"
		}
		results = append(results, ComponentHealth{
			Component: "memory",
			Status:    status,
			Detail:    fmt.Sprintf("pressure=%.2f", pressure),
		})
	}

	if resources.RateLimiter != nil {
		results = append(results, ComponentHealth{Component: "rate_limiter", Status: "ok"})
	}

	if timeouts := resources.TimeoutCount(); timeouts > 0 {
		results = append(results, ComponentHealth{
			Component: "resource_manager",
			Status:    "degraded",
			Detail:    fmt.Sprintf("%d timeouts recorded", timeouts),
		})
	} else {
		results = append(results, ComponentHealth{Component: "resource_manager", Status: "ok"})
	}

	return results
}
