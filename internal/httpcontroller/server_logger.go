package httpcontroller

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Aanishnithin07/Project-Aura/internal/logging"
)

// initLogger sets up the web request log file when enabled and wires
// the request logging middleware either way.
func (s *Server) initLogger() {
	if s.Settings.WebServer.Log.Enabled {
		webLogger, closer, err := logging.NewFileLogger(
			s.Settings.WebServer.Log.Path, "web", slog.LevelInfo)
		if err != nil {
			getLogger().Error("Failed to initialize web log file, using shared logger",
				"path", s.Settings.WebServer.Log.Path, "error", err)
		} else {
			s.webLogger = webLogger
			s.webLoggerClose = closer
		}
	}
	if s.webLogger == nil {
		s.webLogger = getLogger()
	}

	s.setupRequestLogger()
}

// setupRequestLogger configures the HTTP request logging middleware.
// Request metrics are recorded here as well since the middleware
// already has status and latency at hand.
func (s *Server) setupRequestLogger() {
	s.Echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:          true,
		LogStatus:       true,
		LogLatency:      true,
		LogRemoteIP:     true,
		LogMethod:       true,
		LogError:        true,
		LogResponseSize: true,
		HandleError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			latency := v.Latency.Seconds()

			if s.metrics != nil {
				s.metrics.HTTP.RecordRequest(v.Method, c.Path(), strconv.Itoa(v.Status), latency)
			}

			var level slog.Level
			switch {
			case v.Status >= 500:
				level = slog.LevelError
			case v.Status >= 400:
				level = slog.LevelWarn
			case s.Settings.WebServer.Debug && v.Status >= 300:
				level = slog.LevelDebug
			default:
				level = slog.LevelInfo
			}

			fields := []any{
				"remote_ip", v.RemoteIP,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", float64(v.Latency) / float64(time.Millisecond),
			}
			if v.ResponseSize > 0 {
				fields = append(fields, "resp_size", v.ResponseSize)
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error.Error())
			}

			s.webLogger.Log(c.Request().Context(), level,
				fmt.Sprintf("%s %s %d", v.Method, v.URI, v.Status), fields...)
			return nil
		},
	}))
}
