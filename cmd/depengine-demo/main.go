// Command depengine-demo runs a longer-lived workload through the
// dependency engine while exposing Prometheus metrics on /metrics, the
// way the teacher's prometheus_monitoring example exposes graph execution
// metrics.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cse599-dlsys/depengine"
	"github.com/cse599-dlsys/depengine/emit"
)

func main() {
	reg := prometheus.NewRegistry()
	metrics := depengine.NewPrometheusMetrics(reg)

	engine, err := depengine.New(
		depengine.WithMetrics(metrics),
		depengine.WithEmitter(emit.NewLogEmitter(os.Stdout, true)),
		depengine.WithWorkerPoolSize(8),
	)
	if err != nil {
		log.Fatalf("New: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: ":9090", Handler: mux}

	go func() {
		log.Println("serving /metrics on :9090")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tags := make([]depengine.Tag, 8)
	for i := range tags {
		tags[i] = engine.NewVariable()
	}
	engine.Start()

	var wg sync.WaitGroup
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	counters := make([]int, len(tags))

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			i := rand.Intn(len(tags))
			tag := tags[i]
			readOnly := rand.Intn(3) == 0

			wg.Add(1)
			if readOnly {
				_, err := engine.Push(context.Background(), func(context.Context) {
					defer wg.Done()
					fmt.Printf("read tag=%d value=%d\n", tag, counters[i])
				}, []depengine.Tag{tag}, nil)
				if err != nil {
					log.Printf("push read: %v", err)
					wg.Done()
				}
			} else {
				_, err := engine.Push(context.Background(), func(context.Context) {
					defer wg.Done()
					counters[i]++
				}, nil, []depengine.Tag{tag})
				if err != nil {
					log.Printf("push mutate: %v", err)
					wg.Done()
				}
			}
		}
	}

	wg.Wait()
	engine.Stop()
	_ = server.Shutdown(context.Background())
}
