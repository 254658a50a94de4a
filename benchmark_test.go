package crashlog

import (
	"testing"
)

// BenchmarkLoggerInfo benchmarks a record routed to the main log
func BenchmarkLoggerInfo(b *testing.B) {
	logger, _, _ := createNormalLogger(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", i)
	}
}

// BenchmarkLoggerBootstrap benchmarks a record held in the bootstrap buffer
func BenchmarkLoggerBootstrap(b *testing.B) {
	logger, _, _ := createTestLogger(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", i)
	}
}

// BenchmarkLoggerLocation benchmarks records carrying the caller's file:line
func BenchmarkLoggerLocation(b *testing.B) {
	logger, _, _ := createNormalLogger(b, "show_location=true")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Infof("benchmark message %d", i)
	}
}

// BenchmarkLoggerFiltered benchmarks a record dropped by the level filter
func BenchmarkLoggerFiltered(b *testing.B) {
	logger, _, _ := createNormalLogger(b, "level=warn")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug("benchmark message", i)
	}
}

// BenchmarkWorkerLogging benchmarks routing through the worker cache
func BenchmarkWorkerLogging(b *testing.B) {
	logger, _, _ := createNormalLogger(b)

	w, err := logger.RegisterWorker("bench", nil)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	if err := w.Go(func() {
		for i := 0; i < b.N; i++ {
			logger.Info("worker message", i)
		}
	}); err != nil {
		b.Fatal(err)
	}
	w.Wait()
	b.StopTimer()

	if err := logger.CleanupWorker(w); err != nil {
		b.Fatal(err)
	}
}

// BenchmarkConcurrentLogging benchmarks the main log under concurrent load
func BenchmarkConcurrentLogging(b *testing.B) {
	logger, _, _ := createNormalLogger(b)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			logger.Info("concurrent", i)
			i++
		}
	})
}
