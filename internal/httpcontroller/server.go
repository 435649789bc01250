// internal/httpcontroller/server.go
package httpcontroller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/acme/autocert"

	"github.com/Aanishnithin07/Project-Aura/internal/conf"
	"github.com/Aanishnithin07/Project-Aura/internal/logging"
	"github.com/Aanishnithin07/Project-Aura/internal/observability"
	"github.com/Aanishnithin07/Project-Aura/internal/pulse"
)

// Server encapsulates the Echo server serving the vitals API and the
// live waveform stream.
type Server struct {
	Echo     *echo.Echo
	Settings *conf.Settings
	Monitor  *pulse.Monitor

	metrics *observability.Metrics
	streams *streamManager

	startTime time.Time

	webLogger      *slog.Logger
	webLoggerClose func() error
}

// New initializes a new HTTP server around the shared monitor.
// estimateChan carries fresh estimates from the analysis loop into the
// waveform stream broadcaster.
func New(settings *conf.Settings, monitor *pulse.Monitor, estimateChan <-chan pulse.Estimate, metrics *observability.Metrics) *Server {
	s := &Server{
		Echo:      echo.New(),
		Settings:  settings,
		Monitor:   monitor,
		metrics:   metrics,
		streams:   newStreamManager(metrics),
		startTime: time.Now(),
	}

	s.Echo.IPExtractor = echo.ExtractIPFromXFFHeader()

	s.initializeServer()
	s.streams.run(estimateChan)

	return s
}

// initializeServer configures and initializes the server.
func (s *Server) initializeServer() {
	s.Echo.HideBanner = true
	s.initLogger()
	s.configureMiddleware()
	s.initRoutes()
}

// Start begins listening and serving HTTP requests in a goroutine
// tracked by wg, shutting down gracefully when quitChan closes.
func (s *Server) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) {
	wg.Go(func() {
		var err error

		if s.Settings.WebServer.AutoTLS {
			configPaths, configErr := conf.GetDefaultConfigPaths()
			if configErr != nil {
				getLogger().Error("Failed to get config paths for TLS cache", "error", configErr)
				return
			}

			s.Echo.AutoTLSManager.Prompt = autocert.AcceptTOS
			s.Echo.AutoTLSManager.Cache = autocert.DirCache(configPaths[0])
			s.Echo.AutoTLSManager.HostPolicy = autocert.HostWhitelist(s.Settings.WebServer.Host)

			getLogger().Info("HTTP server starting with AutoTLS",
				"port", s.Settings.WebServer.Port, "host", s.Settings.WebServer.Host)
			err = s.Echo.StartAutoTLS(":" + s.Settings.WebServer.Port)
		} else {
			getLogger().Info("HTTP server starting", "port", s.Settings.WebServer.Port)
			err = s.Echo.Start(":" + s.Settings.WebServer.Port)
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			getLogger().Error("HTTP server error", "error", err)
		}
	})

	go func() {
		<-quitChan
		s.Shutdown()
	}()
}

// Shutdown stops the server and the stream broadcaster.
func (s *Server) Shutdown() {
	getLogger().Info("Stopping HTTP server")
	s.streams.stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Echo.Shutdown(ctx); err != nil {
		getLogger().Error("HTTP server shutdown error", "error", err)
	}

	if s.webLoggerClose != nil {
		if err := s.webLoggerClose(); err != nil {
			getLogger().Error("Failed to close web log file", "error", err)
		}
	}
}

// RealIP returns the original client IP, honoring X-Forwarded-For set
// by a reverse proxy.
func (s *Server) RealIP(c echo.Context) string {
	if xff := c.Request().Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[len(ips)-1])
		}
	}

	ip, _, _ := net.SplitHostPort(c.Request().RemoteAddr)
	return ip
}

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("http")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "http")
		}
	})
	return serviceLogger
}

// Debug logs a debug message when web server debug mode is on.
func (s *Server) Debug(format string, v ...any) {
	if s.Settings.WebServer.Debug {
		getLogger().Debug(fmt.Sprintf(format, v...))
	}
}
