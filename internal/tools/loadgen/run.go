package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// call is one request template a worker replays.
type call struct {
	method string
	path   string
	body   string
}

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	client := &http.Client{Timeout: 5 * time.Second}
	endpoints := endpointsForProfile(cfg.Profile)
	if len(endpoints) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var total, failures, s2xx, s4xx, s5xx int64
	jobs := make(chan call, cfg.Concurrency*2)
	wg := sync.WaitGroup{}

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				req, err := http.NewRequestWithContext(ctx, c.method, cfg.BaseURL+c.path, strings.NewReader(c.body))
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				if c.body != "" {
					req.Header.Set("Content-Type", "application/json")
				}
				resp, err := client.Do(req)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				_ = resp.Body.Close()
				atomic.AddInt64(&total, 1)
				switch {
				case resp.StatusCode >= 200 && resp.StatusCode < 300:
					atomic.AddInt64(&s2xx, 1)
				case resp.StatusCode >= 400 && resp.StatusCode < 500:
					atomic.AddInt64(&s4xx, 1)
				case resp.StatusCode >= 500:
					atomic.AddInt64(&s5xx, 1)
				}
			}
		}()
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return Result{TotalRequests: total, Failures: failures, Status2xx: s2xx, Status4xx: s4xx, Status5xx: s5xx}, nil
		case <-ticker.C:
			jobs <- endpoints[i%len(endpoints)]
			i++
		}
	}
}

const demoProduct = `{"name":"Loadgen Lamp","description":"Generated by loadgen","price":"19.99","stock":"3","category":"loadgen"}`

func endpointsForProfile(profile string) []call {
	reads := []call{
		{method: http.MethodGet, path: "/api/v1/products"},
		{method: http.MethodGet, path: "/api/v1/products?page=1&page_size=10"},
		{method: http.MethodGet, path: "/api/v1/products?category=loadgen"},
	}
	errorCalls := []call{
		{method: http.MethodGet, path: "/api/v1/products/not-a-uuid"},
		{method: http.MethodGet, path: "/api/v1/products/00000000-0000-0000-0000-000000000000"},
		{method: http.MethodPost, path: "/api/v1/products", body: `{"name":"missing fields"}`},
	}
	switch strings.ToLower(profile) {
	case "read":
		return reads
	case "", "mixed":
		out := append([]call{}, reads...)
		out = append(out, call{method: http.MethodPost, path: "/api/v1/products", body: demoProduct})
		return append(out, errorCalls[:2]...)
	case "error-heavy":
		return errorCalls
	default:
		return nil
	}
}
