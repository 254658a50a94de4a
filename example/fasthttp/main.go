// FILE: example/fasthttp/main.go
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/crashlog"
	"github.com/lixenwraith/crashlog/compat"
)

func main() {
	cfg := crashlog.DefaultConfig()
	if err := cfg.ApplyOverride(
		"name=fasthttp",
		"level=0",
		"show_location=true",
	); err != nil {
		panic(err)
	}

	logger, err := crashlog.CreateInstance(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Guard()
	if err := logger.BootstrapFinished(0); err != nil {
		fmt.Fprintf(os.Stderr, "no durable log: %v\n", err)
		os.Exit(1)
	}

	// Create fasthttp adapter with custom level detection
	fasthttpAdapter := compat.NewFastHTTPAdapter(
		logger,
		compat.WithDefaultLevel(crashlog.LevelInfo),
		compat.WithLevelDetector(customLevelDetector),
	)

	// Configure fasthttp server
	server := &fasthttp.Server{
		Handler: requestHandler,
		Logger:  fasthttpAdapter,

		// Other server settings
		Name:              "MyServer",
		Concurrency:       fasthttp.DefaultConcurrency,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TCPKeepalive:      true,
		ReduceMemoryUsage: true,
	}

	// Start server
	fmt.Println("Starting server on :8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		logger.Fatal("server stopped:", err)
	}
	if err := logger.Destruct(); err != nil {
		fmt.Fprintf(os.Stderr, "destruct: %v\n", err)
	}
}

// requestHandler runs on fasthttp's goroutines; a panic here is dumped with
// the handler's stack before the process ends
func requestHandler(ctx *fasthttp.RequestCtx) {
	defer crashlog.Guard()
	ctx.SetContentType("text/plain")
	fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
}

func customLevelDetector(msg string) int64 {
	// Specific fasthttp message patterns
	if strings.Contains(msg, "connection cannot be served") {
		return crashlog.LevelWarn
	}
	if strings.Contains(msg, "error when serving connection") {
		return crashlog.LevelCrit
	}

	// Use default detection
	return compat.DetectLogLevel(msg)
}
