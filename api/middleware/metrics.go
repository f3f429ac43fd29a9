package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/initia-labs/transfervolume/metrics"
)

// Metrics records request count, latency and errors per handler
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		httpMetrics := metrics.GetMetrics().HTTPMetrics()
		handler := metrics.GetHandlerPattern(c.Path())
		method := c.Method()

		httpMetrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		httpMetrics.RequestsInFlight.Dec()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
			httpMetrics.ErrorsTotal.WithLabelValues(handler, strconv.Itoa(status)).Inc()
		}

		httpMetrics.RequestsTotal.WithLabelValues(method, handler, metrics.GetStatusClass(status)).Inc()
		httpMetrics.RequestDuration.WithLabelValues(method, handler).Observe(time.Since(start).Seconds())

		return err
	}
}
