// Discharge Worker — обрабатывает элементы очереди выписки.
//
// Worker:
//   - Получает элементы из RabbitMQ (discharge.items)
//   - Управляет приложением журнала и порталом EDI на рабочей станции
//   - Повторяет временные ошибки инфраструктуры
//   - Публикует итог обработки в discharge.events
//
// На одном хосте работает один worker: приложение журнала и браузер
// не допускают параллельной работы.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/discharge/internal/config"
	"github.com/shaiso/discharge/internal/mq"
	"github.com/shaiso/discharge/internal/robot"
	"github.com/shaiso/discharge/internal/telemetry"
	"github.com/shaiso/discharge/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting discharge-worker")

	cfg, err := config.NewLoader().Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r, err := robot.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build robot", "error", err)
		os.Exit(1)
	}
	defer r.Close()

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("rabbitmq connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	w := worker.New(worker.Config{
		Processor:    r.Orchestrator,
		Publisher:    mq.NewPublisher(mqConn, logger),
		Conn:         mqConn,
		LockPath:     cfg.Paths.LockFile,
		DrainTimeout: cfg.Timeouts.Drain,
		Logger:       logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			rw.WriteHeader(http.StatusServiceUnavailable)
			rw.Write([]byte("rabbitmq disconnected"))
			return
		}
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	// Дожидаемся текущего элемента
	w.Stop()
	logger.Info("discharge-worker stopped")
}
