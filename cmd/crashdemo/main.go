// FILE: cmd/crashdemo/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/crashlog"
)

var (
	configFile string
	logDir     string
	keepLogs   bool
	overrides  []string

	faultKind string
	workers   int
	openLog   bool
)

var rootCmd = &cobra.Command{
	Use:           "crashdemo",
	Short:         "Exercise the crash logger",
	Long:          "Runs a short session through bootstrap, workers and shutdown, optionally injecting a fault.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a session, optionally with a fault",
	Long: `Runs a session with the given number of workers. --fault selects what goes wrong:
  none          clean run, logs are deleted unless --keep
  panic         panic on the main goroutine
  nil           nil pointer dereference on the main goroutine
  fatal         fatal message on the main goroutine, execution continues
  worker-panic  panic in the first worker, its log is merged at cleanup
  worker-fatal  fatal message in the first worker
  interrupt     deliver an interrupt to the process`,
	RunE: runSession,
}

var lastCmd = &cobra.Command{
	Use:   "last",
	Short: "Print the log retained by the previous faulted session",
	RunE:  runLast,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "TOML configuration file ([crashlog] table)")
	rootCmd.PersistentFlags().StringVar(&logDir, "dir", "", "Log directory (default: OS temp directory)")
	rootCmd.PersistentFlags().StringArrayVar(&overrides, "set", nil, "Configuration override key=value, repeatable")

	runCmd.Flags().StringVar(&faultKind, "fault", "none", "Fault to inject")
	runCmd.Flags().IntVar(&workers, "workers", 3, "Number of workers")
	runCmd.Flags().BoolVar(&keepLogs, "keep", false, "Keep logs after a clean run")

	lastCmd.Flags().BoolVar(&openLog, "open", false, "Open the log in the default viewer")

	rootCmd.AddCommand(runCmd, lastCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges file, flags and overrides, in that order
func loadConfig() (*crashlog.Config, error) {
	cfg := crashlog.DefaultConfig()
	if configFile != "" {
		fileCfg, err := crashlog.NewConfigFromFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	if logDir != "" {
		cfg.Directory = logDir
	}
	if keepLogs {
		cfg.KeepLogs = true
	}
	cfg.Name = "crashdemo"
	if err := cfg.ApplyOverride(overrides...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSession(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := crashlog.CreateInstance(cfg)
	if err != nil {
		return err
	}
	defer logger.Guard()

	logger.Infof("crashdemo starting, fault=%s workers=%d", faultKind, workers)
	logger.Debug("configuration", cfg)

	if err := logger.BootstrapFinished(0); err != nil {
		return fmt.Errorf("no durable log: %w", err)
	}
	fmt.Printf("Main log: %s\n", logger.MainLogPath())

	ws := make([]*crashlog.Worker, 0, workers)
	for i := 0; i < workers; i++ {
		w, err := logger.RegisterWorker(fmt.Sprintf("demo worker %d", i), func(w *crashlog.Worker, f *crashlog.Fault) {
			fmt.Fprintf(os.Stderr, "%s faulted: %s\n", w.Description(), f.Condition)
		})
		if err != nil {
			return err
		}
		ws = append(ws, w)
	}

	for i, w := range ws {
		if err := w.Go(func() { workerBody(logger, i) }); err != nil {
			return err
		}
	}

	injectMainFault(logger)

	for _, w := range ws {
		w.Wait()
		if err := logger.CleanupWorker(w); err != nil {
			logger.Crit("cleanup failed:", err)
		}
	}

	stats := logger.Stats()
	logger.Infof("crashdemo done, records=%d faults=%d merged=%d", stats.RecordsWritten, stats.FaultsTrapped, stats.WorkersMerged)

	if err := logger.Destruct(); err != nil {
		return err
	}
	if path := logger.RetainedLog(); path != "" {
		fmt.Printf("Log retained: %s\n", path)
	} else {
		fmt.Println("Clean run, logs removed.")
	}
	return nil
}

func workerBody(logger *crashlog.Logger, id int) {
	for step := 0; step < 5; step++ {
		logger.Info("step", step)
		time.Sleep(10 * time.Millisecond)
	}
	if id != 0 {
		return
	}
	switch faultKind {
	case "worker-panic":
		var table map[string]int
		table["boom"]++
	case "worker-fatal":
		logger.Fatal("worker lost its upstream")
		logger.Warn("continuing after fatal message")
	}
}

type record struct {
	next *record
}

func injectMainFault(logger *crashlog.Logger) {
	switch faultKind {
	case "panic":
		panic("injected main goroutine panic")
	case "nil":
		var r *record
		logger.Info("next is", r.next)
	case "fatal":
		logger.Fatalf("injected fatal message at %s", time.Now().Format(time.TimeOnly))
	case "interrupt":
		p, err := os.FindProcess(os.Getpid())
		if err == nil {
			err = p.Signal(os.Interrupt)
		}
		if err != nil {
			logger.Crit("cannot deliver interrupt:", err)
			return
		}
		time.Sleep(2 * time.Second)
	}
}

func runLast(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := crashlog.LastRetainedLog(cfg)
	if err != nil {
		return fmt.Errorf("no retained log: %w", err)
	}
	fmt.Println(path)
	if openLog {
		return crashlog.OpenLogFile(path)
	}
	return nil
}
