package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

type sendRequest struct {
	Code    string `json:"code"`
	SimSlot int    `json:"simSlot"`
}

type sendResponse struct {
	Success bool    `json:"success"`
	Result  *string `json:"result,omitempty"`
	Error   *string `json:"error,omitempty"`
}

var codes = []string{"*100#", "*111#", "*222#", "*555#", "*123#"}

// stats aggregates one run. A 200 with success=false counts as a failure
// bucketed by its error message.
type stats struct {
	mu        sync.Mutex
	latencies []time.Duration
	outcomes  map[string]int
	started   time.Time
	elapsed   time.Duration
}

func (s *stats) record(outcome string, took time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[outcome]++
	s.latencies = append(s.latencies, took)
}

func (s *stats) percentile(p float64) time.Duration {
	if len(s.latencies) == 0 {
		return 0
	}
	i := int(float64(len(s.latencies)-1) * p)
	return s.latencies[i]
}

func send(client *http.Client, url string, n int) string {
	body, _ := json.Marshal(sendRequest{Code: codes[n%len(codes)], SimSlot: n % 2})

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return "transport: " + err.Error()
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var out sendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "invalid JSON"
	}
	if out.Success {
		return "success"
	}
	if out.Error != nil {
		return "failed: " + *out.Error
	}
	return "failed"
}

func run(url string, requests, concurrency int) *stats {
	s := &stats{outcomes: make(map[string]int), started: time.Now()}
	client := &http.Client{Timeout: 45 * time.Second}

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range work {
				start := time.Now()
				s.record(send(client, url, n), time.Since(start))
			}
		}()
	}

	for n := 0; n < requests; n++ {
		work <- n
		if n%10 == 0 {
			fmt.Print(".")
		}
	}
	close(work)
	wg.Wait()

	s.elapsed = time.Since(s.started)
	sort.Slice(s.latencies, func(i, j int) bool { return s.latencies[i] < s.latencies[j] })
	fmt.Println()
	return s
}

func report(title string, requests int, s *stats) {
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println(title)
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Printf("Total Requests:   %d\n", requests)
	fmt.Printf("⏱️  Duration:       %v\n", s.elapsed)
	fmt.Printf("⚡ Requests/sec:   %.2f\n", float64(requests)/s.elapsed.Seconds())
	fmt.Printf("📈 p50 / p95 / max: %v / %v / %v\n", s.percentile(0.50), s.percentile(0.95), s.percentile(1))

	keys := make([]string, 0, len(s.outcomes))
	for k := range s.outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	for _, k := range keys {
		fmt.Printf("   • %-40s %5d (%.1f%%)\n", k, s.outcomes[k], float64(s.outcomes[k])/float64(requests)*100)
	}
	fmt.Println()
}

func main() {
	base := flag.String("base", "http://localhost:8080", "gateway base URL")
	requests := flag.Int("n", 100, "number of send requests")
	concurrency := flag.Int("c", 10, "concurrent clients")
	flag.Parse()

	fmt.Println("🔍 Checking if gateway is running...")
	resp, err := http.Get(*base + "/health")
	if err != nil {
		fmt.Printf("❌ Cannot reach %s: %v\n", *base, err)
		fmt.Println("💡 Start the gateway and a device first (DEVICE_URL=simulator works without one).")
		os.Exit(1)
	}
	resp.Body.Close()

	s := run(*base+"/api/ussd/send", *requests, *concurrency)
	report(fmt.Sprintf("USSD send: %d requests (concurrency %d)", *requests, *concurrency), *requests, s)
}
