// FILE: cmd/stress/main.go
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/crashlog"
)

var (
	numWorkers     = flag.Int("workers", 64, "registered workers")
	numShared      = flag.Int("shared", 16, "unregistered goroutines writing to the main log")
	logsPerWorker  = flag.Int("logs", 2000, "records per goroutine")
	maxMessageSize = flag.Int("size", 2000, "maximum message size")
	faultEvery     = flag.Int("fault-every", 10, "every Nth worker panics, 0 disables")
	logDir         = flag.String("dir", "./stress_logs", "log directory")
)

var levels = []int64{
	crashlog.LevelDebug,
	crashlog.LevelInfo,
	crashlog.LevelWarn,
	crashlog.LevelCrit,
}

func generateRandomMessage(size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[rand.Intn(len(chars))])
	}
	return sb.String()
}

// logBurst writes a burst of random records from the calling goroutine
func logBurst(logger *crashlog.Logger, id int, completed *atomic.Int64) {
	for i := 0; i < *logsPerWorker; i++ {
		level := levels[rand.Intn(len(levels))]
		msg := generateRandomMessage(rand.Intn(*maxMessageSize) + 10)
		logger.Log(level, fmt.Sprintf("wkr=%d seq=%d rnd=%d %s", id, i, rand.Int63(), msg), nil)
	}
	completed.Add(1)
}

func main() {
	flag.Parse()

	fmt.Println("--- Crash Logger Stress Test ---")
	_ = os.RemoveAll(*logDir) // Clean previous run's logs

	logger, err := crashlog.NewBuilder().
		Directory(*logDir).
		Name("stress").
		KeepLogs(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Guard()

	// Worker faults are expected here, keep them off the console
	logger.SetNotifier(crashlog.NotifierFunc(func(crashlog.WindowHandle, *crashlog.Fault, string) {}))

	logger.Info("stress bootstrap", *numWorkers, "workers", *numShared, "shared")
	if err := logger.BootstrapFinished(0); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open main log: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Main log: %s\n", logger.MainLogPath())

	var completed, faulted atomic.Int64
	workers := make([]*crashlog.Worker, 0, *numWorkers)
	for i := 0; i < *numWorkers; i++ {
		w, err := logger.RegisterWorker(fmt.Sprintf("stress %d", i), func(*crashlog.Worker, *crashlog.Fault) {
			faulted.Add(1)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to register worker %d: %v\n", i, err)
			os.Exit(1)
		}
		workers = append(workers, w)
	}

	startTime := time.Now()
	var g errgroup.Group
	for i, w := range workers {
		g.Go(func() error {
			return w.Run(func() {
				logBurst(logger, i, &completed)
				if *faultEvery > 0 && i%*faultEvery == 0 {
					panic(fmt.Sprintf("injected fault in worker %d", i))
				}
			})
		})
	}
	for i := 0; i < *numShared; i++ {
		g.Go(func() error {
			logBurst(logger, -1-i, &completed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Worker start failed: %v\n", err)
	}
	duration := time.Since(startTime)

	for _, w := range workers {
		if err := logger.CleanupWorker(w); err != nil {
			fmt.Fprintf(os.Stderr, "Cleanup of %s failed: %v\n", w.Description(), err)
		}
	}

	stats := logger.Stats()
	total := float64(completed.Load()) * float64(*logsPerWorker)
	fmt.Printf("\n--- Test Finished ---\n")
	fmt.Printf("Goroutines: %d, faulted workers: %d, merged: %d\n", completed.Load(), faulted.Load(), stats.WorkersMerged)
	fmt.Printf("Records written: %d, dropped: %d in %v\n", stats.RecordsWritten, stats.DroppedRecords, duration.Round(time.Millisecond))
	if duration.Seconds() > 0 {
		fmt.Printf("Approximate records/sec: %.2f\n", total/duration.Seconds())
	}

	if err := logger.Destruct(); err != nil {
		fmt.Fprintf(os.Stderr, "Destruct error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Log retained: %s\n", logger.RetainedLog())
}
