package metrics

import (
	"strconv"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ctxsearch/backend/internal/pkg/env"
)

const defaultPushIntervalMs = 10000

// Setup starts pushing collected metrics to METRICS_PUSH_URL when set.
// Without a push target the process only serves them on the Prometheus
// endpoint.
func Setup() {
	url := env.GetEnv("METRICS_PUSH_URL", "")
	if url == "" {
		return
	}

	intervalMs := defaultPushIntervalMs
	if raw := env.GetEnv("METRICS_PUSH_INTERVAL_MS", ""); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			intervalMs = n
		}
	}

	if err := metrics.InitPush(url, time.Duration(intervalMs)*time.Millisecond, "", true); err != nil {
		log.Errorf("[Metrics] Error initializing metrics push: %v", err)
		return
	}
	log.Infof("[Metrics] Pushing to %s every %dms", url, intervalMs)
}

// Handler serves all registered metrics in Prometheus text format.
func Handler(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	metrics.WritePrometheus(c, true)
	return nil
}
