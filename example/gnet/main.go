// FILE: example/gnet/main.go
package main

import (
	"fmt"
	"os"

	"github.com/panjf2000/gnet/v2"

	"github.com/lixenwraith/crashlog"
	"github.com/lixenwraith/crashlog/compat"
)

// Example gnet event handler
type echoServer struct {
	gnet.BuiltinEventEngine
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	c.Write(buf)
	return gnet.None
}

func main() {
	logger, err := crashlog.NewBuilder().
		Name("gnet-echo").
		LevelString("debug").
		Build()
	if err != nil {
		panic(err)
	}
	defer logger.Guard()

	if err := logger.BootstrapFinished(0); err != nil {
		fmt.Fprintf(os.Stderr, "no durable log: %v\n", err)
		os.Exit(1)
	}

	// The event loop runs as a worker, gnet diagnostics land in its own log
	server, err := logger.RegisterWorker("gnet event loop", func(w *crashlog.Worker, f *crashlog.Fault) {
		fmt.Fprintf(os.Stderr, "%s stopped: %s\n", w.Description(), f.Condition)
	})
	if err != nil {
		panic(err)
	}

	gnetAdapter := compat.NewGnetAdapter(logger)
	err = server.Go(func() {
		err := gnet.Run(
			&echoServer{},
			"tcp://127.0.0.1:9000",
			gnet.WithMulticore(true),
			gnet.WithLogger(gnetAdapter),
			gnet.WithReusePort(true),
		)
		if err != nil {
			logger.Crit("gnet stopped:", err)
		}
	})
	if err != nil {
		panic(err)
	}

	server.Wait()
	if err := logger.CleanupWorker(server); err != nil {
		logger.Crit("cleanup failed:", err)
	}
	if err := logger.Destruct(); err != nil {
		fmt.Fprintf(os.Stderr, "destruct: %v\n", err)
	}
}
