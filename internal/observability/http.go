package observability

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// scrapeLog routes promhttp gather errors into the service logger.
type scrapeLog struct {
	logger zerolog.Logger
}

func (l scrapeLog) Println(v ...interface{}) {
	l.logger.Error().Msg(fmt.Sprint(v...))
}

// MetricsHandler serves the scoring, safety and API collectors for Prometheus.
// A collector that fails to gather is logged and skipped instead of failing the scrape.
func MetricsHandler(logger zerolog.Logger) fiber.Handler {
	RegisterMetrics()
	handler := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog:          scrapeLog{logger: logger.With().Str("component", "metrics").Logger()},
		ErrorHandling:     promhttp.ContinueOnError,
		EnableOpenMetrics: true,
	})
	return adaptor.HTTPHandler(handler)
}
