package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"
)

type cancelRequest struct {
	Reason string `json:"reason"`
}

type cancelResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
	Data    struct {
		Route        string `json:"route"`
		Status       string `json:"status"`
		RefundAmount string `json:"refund_amount"`
	} `json:"data"`
}

type outcome struct {
	status int
	body   cancelResponse
	err    error
}

// Fires concurrent cancellations at one booking against a running server.
// Exactly one should settle; every other caller should see a conflict.
func main() {
	baseURL := flag.String("base", "http://localhost:3000/api", "API base URL")
	bookingID := flag.String("booking", "", "booking to cancel (see cmd/seed)")
	token := flag.String("token", "", "bearer token")
	workers := flag.Int("n", 8, "concurrent cancellations")
	flag.Parse()

	if *bookingID == "" || *token == "" {
		log.Fatal("usage: simulation -booking <id> -token <jwt> [-n 8]")
	}

	fmt.Println("=== Concurrent Cancellation Simulation ===")
	fmt.Printf("Booking: %s, callers: %d\n", *bookingID, *workers)

	client := &http.Client{Timeout: 30 * time.Second}
	url := fmt.Sprintf("%s/bookings/%s/cancel", *baseURL, *bookingID)

	results := make([]outcome, *workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = cancel(client, url, *token)
		}(i)
	}
	close(start)
	wg.Wait()

	counts := map[string]int{}
	for i, r := range results {
		if r.err != nil {
			fmt.Printf("[%d] error: %v\n", i, r.err)
			counts["error"]++
			continue
		}
		label := fmt.Sprintf("%d %s", r.status, r.body.Kind)
		if r.status < 300 {
			label = fmt.Sprintf("%d %s/%s %s", r.status, r.body.Data.Route, r.body.Data.Status, r.body.Data.RefundAmount)
		}
		counts[label]++
	}

	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	fmt.Println("\n--- Outcomes ---")
	for _, l := range labels {
		fmt.Printf("%3d x %s\n", counts[l], l)
	}
}

func cancel(client *http.Client, url, token string) outcome {
	body, _ := json.Marshal(cancelRequest{Reason: "simulated concurrent cancellation"})
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return outcome{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return outcome{err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcome{err: err}
	}

	var parsed cancelResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return outcome{status: resp.StatusCode, err: fmt.Errorf("unreadable body %q", raw)}
	}
	return outcome{status: resp.StatusCode, body: parsed}
}
