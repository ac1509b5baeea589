package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Concurrent submission generator for exercising a running registry. Reports
// how many submissions were created, rejected by the gate, or failed outright.
func main() {
	var (
		addr        = flag.String("addr", "http://localhost:8080", "registry base URL")
		total       = flag.Int("n", 100, "number of submissions to send")
		concurrency = flag.Int("c", 10, "number of concurrent workers")
		rps         = flag.Float64("rate", 50, "request pacing, requests per second")
	)
	flag.Parse()

	payload := []byte(`{
		"doc_status": "DRAFT",
		"doc_type": "LP_INTRODUCE_GOODS",
		"importRequest": true,
		"owner_inn": "1234567890",
		"participant_inn": "1234567890",
		"producer_inn": "1234567890",
		"production_type": "OWN_PRODUCTION",
		"description": {"participantInn": "1234567890"},
		"products": [{"tnved_code": "6403999800", "uit_code": "010463003407002921dGVzdA=="}]
	}`)

	limiter := rate.NewLimiter(rate.Limit(*rps), 1)
	jobs := make(chan struct{})
	var created, limited, failed int64

	var wg sync.WaitGroup
	wg.Add(*concurrency)
	for i := 0; i < *concurrency; i++ {
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}
			for range jobs {
				resp, err := client.Post(*addr+"/api/v3/lk/documents/create", "application/json", bytes.NewReader(payload))
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				switch resp.StatusCode {
				case http.StatusCreated:
					atomic.AddInt64(&created, 1)
				case http.StatusTooManyRequests:
					atomic.AddInt64(&limited, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	start := time.Now()
	for i := 0; i < *total; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			log.Fatalf("pacing: %v", err)
		}
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()

	fmt.Printf("sent %d in %s: created=%d rate_limited=%d failed=%d\n",
		*total, time.Since(start).Round(time.Millisecond), created, limited, failed)
}
