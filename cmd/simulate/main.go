package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/parlor/pelmanism/pkg/board"
	"github.com/parlor/pelmanism/pkg/log"
	"github.com/parlor/pelmanism/pkg/queue"
	"github.com/parlor/pelmanism/pkg/repositories"
	"github.com/parlor/pelmanism/pkg/sim"
	"github.com/parlor/pelmanism/pkg/workers"
)

func main() {
	boardFile := flag.String("board", "boards/ab.txt", "Board description file")
	players := flag.Int("players", 8, "Number of concurrent robot players")
	duration := flag.Duration("duration", 10*time.Second, "How long to run the simulation")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	acquireTimeout := flag.Duration("acquire-timeout", 100*time.Millisecond, "Timeout waiting for a contested card (0 waits forever)")
	dbPath := flag.String("db", "", "SQLite path for persisting results (optional)")
	migrations := flag.String("migrations", "migrations", "SQLite migrations directory")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)

	ctx := context.Background()

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

	var resultQueue queue.Queue
	var repository repositories.Repository
	if *dbPath != "" {
		repository, err = repositories.NewSQLiteRepository(ctx, *dbPath, *migrations)
		if err != nil {
			panic(fmt.Sprintf("Failed to create sqlite repository: %v", err))
		}
		defer repository.Close(ctx)
		resultQueue = queue.NewInMemoryQueue(100000)
	}

	runner := sim.NewRunner(sim.NewRunnerOptions{
		Monitor:     monitor,
		ResultQueue: resultQueue,
		Players:     *players,
		Duration:    *duration,
		Seed:        *seed,
	})

	fmt.Printf("Simulating %d players on a %dx%d board for %s\n", *players, monitor.Height(), monitor.Width(), *duration)
	stats, err := runner.Run(ctx)
	if err != nil {
		panic(fmt.Sprintf("Simulation failed: %v", err))
	}

	if repository != nil {
		statsWorker := workers.NewStatsWorker(workers.NewStatsWorkerOptions{
			ResultQueue: resultQueue,
			Repository:  repository,
			Monitor:     monitor,
			Interval:    time.Second,
		})
		statsWorker.Flush(ctx, time.Now())

		// Read back what was persisted across all runs against this db.
		counts, err := repository.LoadOpCounts(ctx)
		if err != nil {
			log.Error("Failed to load persisted op counts: %v", err)
		} else {
			fmt.Printf("Persisted op counts: %v\n", counts)
		}
		snapshot, err := repository.LoadLatestSnapshot(ctx)
		if err != nil && !repositories.IsNotFound(err) {
			log.Error("Failed to load persisted snapshot: %v", err)
		} else if err == nil {
			fmt.Printf("Final board:\n%s", snapshot)
		}
	}

	fmt.Print(stats)
}
