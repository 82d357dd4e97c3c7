// Package dashboard serves the single-page dashboard built from a report.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xscopehub/covidmap/internal/cache"
	"github.com/xscopehub/covidmap/internal/config"
	"github.com/xscopehub/covidmap/internal/metrics"
	"github.com/xscopehub/covidmap/internal/report"
)

// SummaryPath serves the top deaths image.
const SummaryPath = "/charts/top-deaths.svg"

const shutdownGrace = 10 * time.Second

// Server wraps the HTTP engine, the built report and the figure cache.
type Server struct {
	cfg    config.ServerConfig
	engine *gin.Engine
	report *report.Report
	page   Page
	cache  *cache.Figures
}

// New creates a server for rep. The report is treated as read-only.
func New(cfg config.Config, rep *report.Report, figureCache *cache.Figures) *Server {
	page := NewPage(cfg.Dashboard)
	for _, f := range rep.Figures {
		page.Figures = append(page.Figures, f.Name)
	}
	for _, w := range rep.Warnings {
		page.Notices = append(page.Notices, w.Error())
	}
	if len(rep.TopDeaths) > 0 {
		page.SummaryURL = SummaryPath
	}

	s := &Server{cfg: cfg.Server, report: rep, page: page, cache: figureCache}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.GET("/", s.handleIndex)
	r.GET("/figures/:name", s.handleFigure)
	r.GET(SummaryPath, s.handleSummary)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "day": rep.Day.Format("2006-01-02")})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine = r
	return s
}

// Handler exposes the HTTP handler for embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleIndex(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.page.Render(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleFigure(c *gin.Context) {
	name := c.Param("name")
	key := cache.Key{Day: s.report.Day, Figure: name}

	if payload, ok := s.cache.Get(key); ok {
		metrics.FigureRequests.WithLabelValues(name, "hit").Inc()
		c.Data(http.StatusOK, "application/json", payload)
		return
	}

	fig, ok := s.report.Figure(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown figure %q", name)})
		return
	}
	payload, err := fig.JSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if s.cache.Enabled() && !s.cache.Set(key, payload) {
		slog.Debug("figure not cached", "key", key.String(), "bytes", len(payload))
	}
	metrics.FigureRequests.WithLabelValues(name, "miss").Inc()
	c.Data(http.StatusOK, "application/json", payload)
}

func (s *Server) handleSummary(c *gin.Context) {
	if len(s.report.TopDeaths) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "summary chart not available"})
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", s.report.TopDeaths)
}

// Run binds the configured address and serves the dashboard until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Address == "" {
		return fmt.Errorf("server listen address not configured")
	}
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve answers on ln until ctx is cancelled, then lets in-flight requests
// finish within shutdownGrace. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()
	slog.Info("dashboard listening",
		"url", "http://"+ln.Addr().String()+"/",
		"day", s.report.Day.Format("2006-01-02"),
		"figures", len(s.page.Figures),
	)

	select {
	case err := <-served:
		return fmt.Errorf("serve dashboard: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown dashboard: %w", err)
	}
	if err := <-served; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("dashboard stopped")
	return nil
}
