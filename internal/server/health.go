package server

import (
	"fmt"
	"net/http"
	"time"

	"GainsGuide_AI/internal/utility"
	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// healthHandler collects and returns runtime and coach status.
func (s *Server) healthHandler(c echo.Context) error {
	ctx := c.Request().Context()

	// 1. Memory Stats
	v, _ := mem.VirtualMemoryWithContext(ctx)

	// 2. CPU Usage since the previous call
	cpuPercent, _ := cpu.PercentWithContext(ctx, 0, false)

	// 3. Host/Runtime Info
	hInfo, _ := host.InfoWithContext(ctx)

	runtime := map[string]interface{}{
		"uptime":     time.Since(s.startTime).Round(time.Second).String(),
		"start_time": s.startTime.Format(time.RFC3339),
	}
	if hInfo != nil {
		runtime["os"] = hInfo.OS
		runtime["platform"] = hInfo.Platform
		runtime["arch"] = hInfo.KernelArch
		runtime["hostname"] = hInfo.Hostname
	}

	payload := map[string]interface{}{
		"status":  "online",
		"runtime": runtime,
		"coach": map[string]interface{}{
			"providers":         s.coach.ProviderNames(),
			"catalog_loaded":    s.coach.Knowledge().CatalogText != "",
			"structured_output": s.coach.Knowledge().Structured,
			"cached_replies":    s.coach.CachedReplies(),
			"active_sockets":    utility.ActiveClients(),
		},
	}
	if len(cpuPercent) > 0 {
		payload["cpu"] = map[string]interface{}{
			"usage_percent": fmt.Sprintf("%.2f%%", cpuPercent[0]),
		}
	}
	if v != nil {
		payload["memory"] = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(v.Used)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
		}
	}

	return c.JSON(http.StatusOK, payload)
}
