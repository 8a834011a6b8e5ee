package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandeepkv93/product-media-catalog/internal/config"
	"github.com/sandeepkv93/product-media-catalog/internal/di"
)

func main() {
	if err := config.LoadEnvFile(envFilePath()); err != nil {
		log.Fatal(err)
	}
	a, err := di.InitializeApp()
	if err != nil {
		log.Fatal(err)
	}

	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr, "database_driver", a.Config.DatabaseDriver, "media_driver", a.Config.MediaDriver)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		a.Logger.Info("shutdown requested", "signal", s.String())
	case err := <-serveErr:
		a.Logger.Error("http server failed", "error", err)
	}

	if err := a.Shutdown(context.Background()); err != nil {
		a.Logger.Error("shutdown completed with errors", "error", err)
		os.Exit(1)
	}
	a.Logger.Info("shutdown complete")
}

func envFilePath() string {
	if p := os.Getenv("ENV_FILE"); p != "" {
		return p
	}
	return ".env"
}
