package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const probeTimeout = time.Second

// Server wraps the HTTP server setup.
type Server struct {
	httpServer *http.Server
	logger     *logrus.Entry
}

// Probe reports whether one backing store answers. /readyz runs every probe.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// New builds a Server serving the storefront API.
func New(addr string, logger *logrus.Entry, deps Deps) (*Server, error) {
	router, err := buildRouter(logger, deps)
	if err != nil {
		return nil, err
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	return &Server{
		httpServer: httpSrv,
		logger:     logger,
	}, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("http server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyHandler(probes []Probe, logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(probes) == 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "no backends configured"})
			return
		}
		checks := make(map[string]string, len(probes))
		ready := true
		for _, p := range probes {
			ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
			err := p.Check(ctx)
			cancel()
			if err != nil {
				logger.WithError(err).WithField("backend", p.Name).Warn("readiness probe failed")
				checks[p.Name] = "unreachable"
				ready = false
				continue
			}
			checks[p.Name] = "ok"
		}
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
	}
}
