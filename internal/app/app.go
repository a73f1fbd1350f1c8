package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	config "github.com/DRSN-tech/cart-sync/internal/cfg"
	v1Grpc "github.com/DRSN-tech/cart-sync/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/cart-sync/internal/delivery/v1/http"
	"github.com/DRSN-tech/cart-sync/internal/infrastructure/cartservice"
	"github.com/DRSN-tech/cart-sync/internal/infrastructure/kafka"
	"github.com/DRSN-tech/cart-sync/internal/infrastructure/poller"
	"github.com/DRSN-tech/cart-sync/internal/metrics"
	"github.com/DRSN-tech/cart-sync/internal/usecase"
	"github.com/DRSN-tech/cart-sync/pkg/clock"
	"github.com/DRSN-tech/cart-sync/pkg/closer"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	initTimeout     = 10 * time.Second
	shutdownTimeout = 10 * time.Second
	topicTimeout    = 10 * time.Second
)

// App собирает движок корзины и его окружение: хранилище снимков, клиент сервиса корзины,
// публикацию событий, фоновую сверку и серверы HTTP/gRPC.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer
	clock  clock.Clock

	cartUC  *usecase.CartSyncUseCase
	poller  *poller.Poller
	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer

	ready atomic.Bool
}

func NewApp(cfg *config.Config, logger logger.Logger) (app *App, err error) {
	a := &App{
		cfg:    cfg,
		logger: logger,
		closer: closer.NewCloser(0),
		clock:  clock.NewReal(),
	}
	// Ресурсы, открытые до ошибки, закрываются сразу.
	defer func() {
		if err != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if cerr := a.closer.Close(ctx); cerr != nil {
				logger.Warnf("cleanup after failed init: %v", cerr)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	store, err := a.newSnapshotStore(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []usecase.Option{
		usecase.WithClock(a.clock),
		usecase.WithDebounceWindow(cfg.Sync.DebounceWindow),
		usecase.WithSnapshotStore(store),
		usecase.WithMetrics(metrics.New(registry)),
	}

	if cfg.Kafka != nil {
		producer, err := a.newProducer()
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		opts = append(opts, usecase.WithEventPublisher(producer))
	} else {
		logger.Infof("KAFKA_BROKERS not set, cart events are not published")
	}

	// Контекст для записей, которые запускает таймер debounce. Отменяется после Flush.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	a.closer.AddSimple("debounce context", func() error {
		cancelBase()
		return nil
	})
	opts = append(opts, usecase.WithBaseContext(baseCtx))

	client := cartservice.NewClient(cfg.CartService, nil, logger)
	a.cartUC = usecase.NewCartSyncUC(client, logger, opts...)
	a.closer.Add("pending quantity edits", func(ctx context.Context) error {
		a.cartUC.Flush(ctx)
		return nil
	})

	if cfg.Sync.PollEnabled {
		a.poller = poller.NewPoller(a.cartUC, cfg.Sync, a.clock, logger)
		a.closer.AddSimple("cart poller", func() error {
			a.poller.Stop()
			return nil
		})
	}

	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, logger)
	a.grpcSrv.RegisterServices()
	a.closer.Add("gRPC server", a.grpcSrv.Stop)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), a.ready.Load)
	router.Init(a.cartUC)

	a.httpSrv = v1Http.NewServer(r, cfg.Http)
	a.closer.Add("HTTP server", a.httpSrv.Stop)

	return a, nil
}

// Run запускает серверы и фоновую сверку и блокируется до сигнала остановки или фатальной ошибки.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			return e.Wrap(whereami.WhereAmI(), err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			a.logger.Errorf(err, "gRPC server failed")
			return e.Wrap(whereami.WhereAmI(), err)
		}
		return nil
	})

	a.restore(gctx)

	if a.poller != nil {
		a.poller.Start(gctx)
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
		return a.shutdown()
	})

	err := g.Wait()
	if err != nil {
		a.logger.Errorf(err, "application stopped with error")
		return err
	}

	a.logger.Infof("Application shutdown complete")
	return nil
}

// restore поднимает сохранённую корзину и подтягивает актуальную с сервера.
// Сервис становится готовым даже при ошибке загрузки: корзина остаётся восстановленной из снимка.
func (a *App) restore(ctx context.Context) {
	if err := a.cartUC.Restore(ctx); err != nil {
		a.logger.Warnf("failed to restore cart snapshot: %v", err)
	}

	if err := a.cartUC.FetchCart(ctx); err != nil {
		a.logger.Warnf("initial cart fetch failed: %v", err)
	}

	a.ready.Store(true)
	a.grpcSrv.SetServing(true)
	a.logger.Infof("cart restored, serving")
}

func (a *App) shutdown() error {
	a.ready.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Errorf(err, "shutdown error")
	}

	return nil
}

func (a *App) newProducer() (*kafka.Producer, error) {
	producer, err := kafka.NewProducer(a.logger, a.cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := producer.EnsureTopic(topicTimeout); err != nil {
		a.logger.Warnf("failed to ensure kafka topic %s: %v", a.cfg.Kafka.Topic, err)
	}

	a.closer.AddSimple("kafka producer", producer.Close)

	return producer, nil
}
