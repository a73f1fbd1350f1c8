package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DRSN-tech/cart-sync/internal/stub"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/joho/godotenv"
)

// Локальный сервис корзины для разработки движка без настоящего бэкенда.
func main() {
	log := logger.NewSlogLogger()

	if err := godotenv.Load(); err != nil {
		log.Debugf(".env not loaded: %v", err)
	}

	port := os.Getenv("STUB_PORT")
	if port == "" {
		port = "8081"
	}

	svc := stub.New(log, os.Getenv("CART_SERVICE_TOKEN"), stub.DefaultCatalog()...)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("cart stub listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf(err, "cart stub failed")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf(err, "cart stub shutdown error")
	}
}
