//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// The server's rate limiter is per IP; run it with RATE_LIMIT_REQUESTS raised
// well above the request counts below.
const (
	baseURL     = "http://localhost:8080/api"
	offerSeats  = 4
	passengers  = 40
	password    = "loadtest-pass-1"
	searchCalls = 1000
)

type Stats struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	TotalLatency    int64
	MinLatency      int64
	MaxLatency      int64
}

func newStats() *Stats {
	return &Stats{MinLatency: int64(^uint64(0) >> 1)}
}

func (s *Stats) record(latency int64, ok bool) {
	atomic.AddInt64(&s.TotalRequests, 1)
	atomic.AddInt64(&s.TotalLatency, latency)
	if !ok {
		atomic.AddInt64(&s.FailedRequests, 1)
		return
	}
	atomic.AddInt64(&s.SuccessRequests, 1)

	for {
		old := atomic.LoadInt64(&s.MinLatency)
		if latency >= old || atomic.CompareAndSwapInt64(&s.MinLatency, old, latency) {
			break
		}
	}
	for {
		old := atomic.LoadInt64(&s.MaxLatency)
		if latency <= old || atomic.CompareAndSwapInt64(&s.MaxLatency, old, latency) {
			break
		}
	}
}

type account struct {
	ID    string
	Token string
}

func main() {
	fmt.Println("Toosila Load Test")
	fmt.Println("=================")

	run := time.Now().UnixNano()

	fmt.Println("\n1. Creating test data...")
	driver := register(fmt.Sprintf("lt-driver-%d@toosila.test", run), true)
	riders := make([]account, 0, passengers)
	for i := 0; i < passengers; i++ {
		riders = append(riders, register(fmt.Sprintf("lt-rider-%d-%d@toosila.test", run, i), false))
	}

	var offer struct {
		ID string `json:"id"`
	}
	status, err := call(http.MethodPost, "/offers", driver.Token, map[string]interface{}{
		"from_city":      "Baghdad",
		"to_city":        "Basra",
		"departure_time": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"seats":          offerSeats,
		"price":          25000,
	}, &offer)
	if err != nil || status != http.StatusCreated {
		log.Fatalf("create offer: status=%d err=%v", status, err)
	}
	fmt.Printf("Created %d passengers and offer %s with %d seats\n", len(riders), offer.ID, offerSeats)

	fmt.Printf("\n2. %d passengers booking one seat concurrently...\n", len(riders))
	bookingIDs, stats := bookConcurrently(offer.ID, riders)
	printStats("Concurrent Bookings", stats)
	fmt.Printf("  Bookings created: %d (capacity %d)\n", len(bookingIDs), offerSeats)

	fmt.Println("\n3. Driver accepting every booking concurrently...")
	accepted, stats := acceptConcurrently(driver, bookingIDs)
	printStats("Concurrent Accepts", stats)

	fmt.Println("\n4. Checking seat accounting...")
	var seats struct {
		Available int `json:"available_seats"`
	}
	if _, err := call(http.MethodGet, "/offers/"+offer.ID+"/seats", "", nil, &seats); err != nil {
		log.Fatalf("available seats: %v", err)
	}
	fmt.Printf("  Accepted: %d, available now: %d\n", accepted, seats.Available)
	if int(accepted) > offerSeats || seats.Available < 0 || int(accepted)+seats.Available > offerSeats {
		log.Fatalf("OVERBOOKED: accepted=%d available=%d capacity=%d", accepted, seats.Available, offerSeats)
	}
	fmt.Println("  No overbooking detected")

	fmt.Printf("\n5. Offer search (%d requests, 25 concurrent)...\n", searchCalls)
	printStats("Offer Search", searchOffers(searchCalls, 25))

	fmt.Println("\nLoad test completed!")
}

func register(email string, isDriver bool) account {
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	status, err := call(http.MethodPost, "/auth/register", "", map[string]interface{}{
		"name":      "Load Test",
		"email":     email,
		"password":  password,
		"is_driver": isDriver,
	}, &resp)
	if err != nil || status != http.StatusCreated {
		log.Fatalf("register %s: status=%d err=%v", email, status, err)
	}
	return account{ID: resp.User.ID, Token: resp.Token}
}

func bookConcurrently(offerID string, riders []account) ([]string, *Stats) {
	stats := newStats()
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []string
	)

	for i, rider := range riders {
		wg.Add(1)
		go func(idx int, rider account) {
			defer wg.Done()

			var booking struct {
				ID string `json:"id"`
			}
			start := time.Now()
			status, err := callWithKey(http.MethodPost, "/bookings", rider.Token, fmt.Sprintf("lt-book-%d", idx), map[string]interface{}{
				"offer_id": offerID,
				"seats":    1,
			}, &booking)
			latency := time.Since(start).Milliseconds()

			// 400 is the expected answer once the offer is full
			stats.record(latency, err == nil && (status == http.StatusCreated || status == http.StatusBadRequest))
			if status == http.StatusCreated {
				mu.Lock()
				ids = append(ids, booking.ID)
				mu.Unlock()
			}
		}(i, rider)
	}

	wg.Wait()
	return ids, stats
}

func acceptConcurrently(driver account, bookingIDs []string) (int64, *Stats) {
	stats := newStats()
	var (
		wg       sync.WaitGroup
		accepted int64
	)

	for _, id := range bookingIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			start := time.Now()
			status, err := call(http.MethodPut, "/bookings/"+id+"/status", driver.Token, map[string]string{"status": "accepted"}, nil)
			latency := time.Since(start).Milliseconds()

			stats.record(latency, err == nil && status == http.StatusOK)
			if status == http.StatusOK {
				atomic.AddInt64(&accepted, 1)
			}
		}(id)
	}

	wg.Wait()
	return accepted, stats
}

func searchOffers(numRequests, concurrency int) *Stats {
	stats := newStats()
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)
	routes := [][2]string{{"Baghdad", "Basra"}, {"Erbil", "Mosul"}, {"Najaf", "Karbala"}}

	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(route [2]string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			start := time.Now()
			status, err := call(http.MethodGet, "/offers?from="+route[0]+"&to="+route[1], "", nil, nil)
			stats.record(time.Since(start).Milliseconds(), err == nil && status == http.StatusOK)
		}(routes[rand.Intn(len(routes))])
	}

	wg.Wait()
	return stats
}

func call(method, path, token string, body, out interface{}) (int, error) {
	return callWithKey(method, path, token, "", body, out)
}

func callWithKey(method, path, token, idempotencyKey string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
		return resp.StatusCode, nil
	}
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func printStats(name string, stats *Stats) {
	avgLatency := float64(0)
	if stats.TotalRequests > 0 {
		avgLatency = float64(stats.TotalLatency) / float64(stats.TotalRequests)
	}

	fmt.Printf("\n%s Results:\n", name)
	fmt.Printf("  Total Requests:   %d\n", stats.TotalRequests)
	fmt.Printf("  Successful:       %d\n", stats.SuccessRequests)
	fmt.Printf("  Failed:           %d\n", stats.FailedRequests)
	if stats.TotalRequests > 0 {
		fmt.Printf("  Success Rate:     %.2f%%\n", float64(stats.SuccessRequests)/float64(stats.TotalRequests)*100)
	}
	fmt.Printf("  Avg Latency:      %.2f ms\n", avgLatency)
	if stats.MinLatency != int64(^uint64(0)>>1) {
		fmt.Printf("  Min Latency:      %d ms\n", stats.MinLatency)
	}
	fmt.Printf("  Max Latency:      %d ms\n", stats.MaxLatency)
}
