// Package mockserver provides a mock BitMEX server for testing.
// It serves the REST endpoints used for historical data and the public daily dumps.
package mockserver

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzip"
	"github.com/rxtech-lab/argo-archiver/internal/types"
)

const bitmexTimeLayout = "2006-01-02T15:04:05.000Z"

// Key identifies one data series served by the mock.
type Key struct {
	Symbol   string
	Channel  types.Channel
	Interval types.Interval
}

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	// Data holds the records of each series in timestamp order.
	Data map[Key][]types.Record
	// FailingSymbols answer every data request with HTTP 503.
	FailingSymbols []string
	// RateLimited is the number of data requests answered with HTTP 429 before serving.
	RateLimited int
	// RetryAfter is sent with each HTTP 429, in seconds. 0 omits the header.
	RetryAfter int
	// MaxCount caps the count parameter like the real API.
	MaxCount int
}

// MockBitmexServer provides a mock BitMEX server for testing.
type MockBitmexServer struct {
	mu sync.Mutex

	httpServer *http.Server
	listener   net.Listener

	data           map[Key][]types.Record
	failingSymbols map[string]bool
	rateLimited    int
	retryAfter     int
	maxCount       int

	requests    []*http.Request
	rateLimits  int
	dataQueries int
}

// NewMockBitmexServer creates a new mock BitMEX server.
func NewMockBitmexServer(config ServerConfig) *MockBitmexServer {
	s := &MockBitmexServer{}
	s.Reset(config)

	return s
}

// Reset replaces the served data and clears the request log.
func (s *MockBitmexServer) Reset(config ServerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[Key][]types.Record, len(config.Data))
	for k, v := range config.Data {
		s.data[k] = v
	}

	s.failingSymbols = make(map[string]bool)
	for _, symbol := range config.FailingSymbols {
		s.failingSymbols[symbol] = true
	}

	s.rateLimited = config.RateLimited
	s.retryAfter = config.RetryAfter
	s.maxCount = config.MaxCount
	if s.maxCount <= 0 {
		s.maxCount = 1000
	}

	s.requests = nil
	s.rateLimits = 0
	s.dataQueries = 0
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockBitmexServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()
	router.Use(s.recordRequest)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/trade/bucketed", s.handleSeries(types.ChannelBars)).Methods("GET")
	api.HandleFunc("/quote", s.handleSeries(types.ChannelQuotes)).Methods("GET")
	api.HandleFunc("/trade", s.handleSeries(types.ChannelTrades)).Methods("GET")
	api.HandleFunc("/instrument", s.handleInstrument).Methods("GET")

	router.HandleFunc("/data/{channel:quote|trade}/{date:[0-9]+}.csv.gz", s.handleDump).Methods("GET")

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock server.
func (s *MockBitmexServer) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Address returns the address the server is listening on.
func (s *MockBitmexServer) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the REST API base URL.
func (s *MockBitmexServer) BaseURL() string {
	return "http://" + s.Address() + "/api/v1"
}

// DumpURL returns the base URL of the daily dumps.
func (s *MockBitmexServer) DumpURL() string {
	return "http://" + s.Address() + "/data"
}

// Requests returns the paths and queries of every request received.
func (s *MockBitmexServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.requests))
	for i, r := range s.requests {
		out[i] = r.URL.RequestURI()
	}

	return out
}

// DataQueries returns the number of record requests served, rate-limited ones excluded.
func (s *MockBitmexServer) DataQueries() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dataQueries
}

// RateLimits returns the number of HTTP 429 responses sent.
func (s *MockBitmexServer) RateLimits() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rateLimits
}

func (s *MockBitmexServer) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r)
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// admit applies rate limiting and failure injection. It returns false when the response was sent.
func (s *MockBitmexServer) admit(w http.ResponseWriter, symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rateLimited > 0 {
		s.rateLimited--
		s.rateLimits++

		if s.retryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(s.retryAfter))
		}

		writeError(w, http.StatusTooManyRequests, "RateLimitError", "Rate limit exceeded, retry in 1 seconds.")

		return false
	}

	if s.failingSymbols[symbol] {
		writeError(w, http.StatusServiceUnavailable, "HTTPError", "Service temporarily unavailable")

		return false
	}

	s.dataQueries++

	return true
}

// handleSeries handles GET /api/v1/trade/bucketed, /api/v1/quote and /api/v1/trade
func (s *MockBitmexServer) handleSeries(channel types.Channel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		symbol := q.Get("symbol")

		if symbol == "" {
			writeError(w, http.StatusBadRequest, "ValidationError", "symbol is required")

			return
		}

		key := Key{Symbol: symbol, Channel: channel}
		if channel == types.ChannelBars {
			key.Interval = types.Interval(q.Get("binSize"))
			if !key.Interval.Valid() {
				writeError(w, http.StatusBadRequest, "ValidationError", "invalid binSize")

				return
			}
		}

		startTime, err := parseQueryTime(q.Get("startTime"), time.Time{})
		if err != nil {
			writeError(w, http.StatusBadRequest, "ValidationError", "invalid startTime")

			return
		}

		endTime, err := parseQueryTime(q.Get("endTime"), time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			writeError(w, http.StatusBadRequest, "ValidationError", "invalid endTime")

			return
		}

		start, _ := strconv.Atoi(q.Get("start"))
		count, err := strconv.Atoi(q.Get("count"))
		if err != nil || count <= 0 {
			count = 100
		}

		if !s.admit(w, symbol) {
			return
		}

		if count > s.maxCount {
			count = s.maxCount
		}

		s.mu.Lock()
		series := s.data[key]
		s.mu.Unlock()

		// endTime is inclusive
		matched := make([]types.Record, 0)
		for _, record := range series {
			ts, err := record.Time()
			if err != nil || ts.Before(startTime) || ts.After(endTime) {
				continue
			}

			matched = append(matched, record)
		}

		page := make([]types.Record, 0)
		if start < len(matched) {
			page = matched[start:min(start+count, len(matched))]
		}

		writeJSON(w, page)
	}
}

// handleInstrument handles GET /api/v1/instrument
func (s *MockBitmexServer) handleInstrument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	seen := make(map[string]bool)
	for key := range s.data {
		seen[key.Symbol] = true
	}
	for symbol := range s.failingSymbols {
		seen[symbol] = true
	}
	s.mu.Unlock()

	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	start, _ := strconv.Atoi(r.URL.Query().Get("start"))
	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil || count <= 0 {
		count = 100
	}

	instruments := make([]map[string]any, 0)
	for i := start; i < len(symbols) && i < start+count; i++ {
		instruments = append(instruments, map[string]any{"symbol": symbols[i]})
	}

	writeJSON(w, instruments)
}

// handleDump handles GET /data/{quote|trade}/{YYYYMMDD}.csv.gz
func (s *MockBitmexServer) handleDump(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	channel := types.Channel(vars["channel"] + "s")

	day, err := time.Parse("20060102", vars["date"])
	if err != nil {
		http.NotFound(w, r)

		return
	}

	if !s.admit(w, "") {
		return
	}

	s.mu.Lock()
	var rows []types.Record
	for key, series := range s.data {
		if key.Channel != channel {
			continue
		}

		for _, record := range series {
			if ts, err := record.Time(); err == nil && types.TruncateDay(ts).Equal(day) {
				rows = append(rows, record)
			}
		}
	}
	s.mu.Unlock()

	if len(rows) == 0 {
		http.NotFound(w, r)

		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := rows[i].Time()
		b, _ := rows[j].Time()

		return a.Before(b)
	})

	header := channel.Header()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	cw := csv.NewWriter(gz)
	_ = cw.Write(header)

	for _, record := range rows {
		row := record.Row(header)
		// dumps use 2019-01-01D00:00:00.000000000
		if ts, err := record.Time(); err == nil {
			row[0] = ts.Format("2006-01-02D15:04:05.000000000")
		}

		_ = cw.Write(row)
	}

	cw.Flush()
	gz.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(buf.Bytes())
}

func parseQueryTime(v string, fallback time.Time) (time.Time, error) {
	if v == "" {
		return fallback, nil
	}

	if t, err := time.Parse(bitmexTimeLayout, v); err == nil {
		return t, nil
	}

	return time.Parse(time.RFC3339Nano, strings.ReplaceAll(v, " ", "+"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, name, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"name": name, "message": message},
	})
}
