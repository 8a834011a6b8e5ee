package loadgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestRunErrorHeavyProfileHitsProductRoutes(t *testing.T) {
	var (
		mu      sync.Mutex
		methods = map[string]int{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods[r.Method]++
		mu.Unlock()
		if r.Method == http.MethodPost && r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type on POST")
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	res, err := Run(context.Background(), Config{
		BaseURL:     srv.URL,
		Profile:     "error-heavy",
		Duration:    400 * time.Millisecond,
		RPS:         50,
		Concurrency: 2,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TotalRequests == 0 {
		t.Fatal("expected traffic")
	}
	if res.Status4xx != res.TotalRequests || res.Status2xx != 0 || res.Status5xx != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	mu.Lock()
	defer mu.Unlock()
	if methods[http.MethodGet] == 0 {
		t.Fatalf("expected GET traffic, got %v", methods)
	}
}

func TestRunRejectsUnknownProfile(t *testing.T) {
	if _, err := Run(context.Background(), Config{Profile: "auth", Duration: time.Millisecond}); err == nil {
		t.Fatal("expected unknown profile error")
	}
}

func TestEndpointsForProfile(t *testing.T) {
	for _, profile := range []string{"", "read", "mixed", "error-heavy"} {
		if len(endpointsForProfile(profile)) == 0 {
			t.Fatalf("expected endpoints for profile %q", profile)
		}
	}
}
