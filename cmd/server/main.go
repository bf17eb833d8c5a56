package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parlor/pelmanism/pkg/api"
	"github.com/parlor/pelmanism/pkg/board"
	"github.com/parlor/pelmanism/pkg/log"
	"github.com/parlor/pelmanism/pkg/network"
	"github.com/parlor/pelmanism/pkg/queue"
	"github.com/parlor/pelmanism/pkg/repositories"
	"github.com/parlor/pelmanism/pkg/workers"
)

func main() {
	boardFile := flag.String("board", "boards/ab.txt", "Board description file")
	httpPort := flag.Int("http-port", 8080, "HTTP port to listen on")
	wsPort := flag.Int("ws-port", 8081, "WebSocket port to listen on")
	acquireTimeout := flag.Duration("acquire-timeout", 5*time.Second, "Timeout waiting for a contested card (0 waits forever)")
	dbPath := flag.String("db", "", "SQLite path for stats persistence (DATABASE_URL overrides with postgres)")
	migrations := flag.String("migrations", "migrations", "SQLite migrations directory")
	statsInterval := flag.Duration("stats-interval", 10*time.Second, "Stats persistence interval")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	def, err := board.LoadDefinition(*boardFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load board: %v", err))
	}

	monitor, err := board.NewMonitor(board.NewMonitorOptions{
		Definition:     def,
		AcquireTimeout: *acquireTimeout,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create monitor: %v", err))
	}
	log.Info("Board is %dx%d", monitor.Height(), monitor.Width())

	var repository repositories.Repository
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		repository, err = repositories.NewPostgresRepository(ctx, connStr)
		if err != nil {
			panic(fmt.Sprintf("Failed to create postgres repository: %v", err))
		}
	} else if *dbPath != "" {
		repository, err = repositories.NewSQLiteRepository(ctx, *dbPath, *migrations)
		if err != nil {
			panic(fmt.Sprintf("Failed to create sqlite repository: %v", err))
		}
	}

	var resultQueue queue.Queue
	if repository != nil {
		defer repository.Close(context.Background())

		resultQueue = queue.NewInMemoryQueue(10000)
		statsWorker := workers.NewStatsWorker(workers.NewStatsWorkerOptions{
			ResultQueue: resultQueue,
			Repository:  repository,
			Monitor:     monitor,
			Interval:    *statsInterval,
		})
		go statsWorker.Start(ctx)
	}

	wsServer := network.NewWSServer(network.NewWSServerOptions{
		Port:    *wsPort,
		Monitor: monitor,
	})
	go wsServer.Start(ctx)

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:        *httpPort,
		Monitor:     monitor,
		ResultQueue: resultQueue,
	})
	go apiServer.Start()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}
}
