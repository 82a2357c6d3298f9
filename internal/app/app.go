package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/chainguard/internal/config"
	httpx "github.com/you/chainguard/internal/http"
	"github.com/you/chainguard/internal/http/handlers"
)

// Handler builds the HTTP bridge over a container
func Handler(c *Container) http.Handler {
	flowH := handlers.NewFlowHandlers(c.Flow, c.Sessions)
	return httpx.BuildRouter(flowH, c.Sessions)
}

// Run serves the auth flow until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	c, err := NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Flow.Boot(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           Handler(c),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Printf("shutting down")
	return srv.Shutdown(shutdownCtx)
}
