// Package server exposes read-only run status over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"autotrade/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type PositionLister interface {
	All() []model.PositionSnapshot
}

type BarSource interface {
	Bars(symbol string) []model.BarRow
	Symbols() []string
	Latest(symbol string) (model.BarRow, bool)
}

type Server struct {
	runID     string
	started   time.Time
	positions PositionLister
	bars      BarSource
	router    *gin.Engine
}

func New(runID string, positions PositionLister, bars BarSource) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		runID:     runID,
		started:   time.Now(),
		positions: positions,
		bars:      bars,
		router:    gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/positions", s.listPositions)
	s.router.GET("/bars/:symbol", s.listBars)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("status server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	symbols := s.bars.Symbols()
	lastMinute := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		if bar, ok := s.bars.Latest(symbol); ok {
			lastMinute[symbol] = bar.MinuteKey
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"run_id":      s.runID,
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"symbols":     symbols,
		"last_minute": lastMinute,
	})
}

func (s *Server) listPositions(c *gin.Context) {
	positions := s.positions.All()
	if positions == nil {
		positions = []model.PositionSnapshot{}
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

func (s *Server) listBars(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	bars := s.bars.Bars(symbol)
	if len(bars) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no bars for " + symbol})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "bars": bars})
}
