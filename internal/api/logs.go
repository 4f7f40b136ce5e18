package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/kafka"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/logstore"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/metrics"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

// LogServer exposes the log store over HTTP.
type LogServer struct {
	store     logstore.Store
	publisher Publisher
	srv       *http.Server
}

// NewLogServer creates a server backed by store. publisher may be nil;
// when set, every appended batch is mirrored to it.
func NewLogServer(store logstore.Store, publisher Publisher) *LogServer {
	return &LogServer{
		store:     store,
		publisher: publisher,
	}
}

func (s *LogServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/logs", instrument("/logs", gzhttp.GzipHandler(http.HandlerFunc(s.handleLogs))))
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *LogServer) ListenAndServe(addr string) error {
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return serve(s.srv)
}

func (s *LogServer) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

func (s *LogServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAppend(w, r)
	case http.MethodGet:
		s.handleGetAll(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *LogServer) handleAppend(w http.ResponseWriter, r *http.Request) {
	entries, err := decodeEntries(r)
	if err != nil {
		http.Error(w, "Invalid request body (expected JSON array of objects)", http.StatusBadRequest)
		return
	}

	res, err := s.store.Append(r.Context(), entries)
	if err != nil {
		log.Printf("Failed to append %d logs: %v", len(entries), err)
		http.Error(w, "Failed to store logs", http.StatusInternalServerError)
		return
	}

	metrics.LogsAppended.Add(float64(res.Received))
	metrics.LogsStored.Set(float64(res.Total))

	if s.publisher != nil && len(entries) > 0 {
		if err := s.publisher.ProduceBatch(r.Context(), kafka.LogRecords(entries)); err != nil {
			log.Printf("Failed to mirror %d logs to Kafka: %v", len(entries), err)
		}
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *LogServer) handleGetAll(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.All(r.Context())
	if errors.Is(err, logstore.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "No logs found"})
		return
	}
	if err != nil {
		log.Printf("Failed to read logs: %v", err)
		http.Error(w, "Failed to read logs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"logs": entries})
}

// decodeEntries reads a body holding exactly one JSON array of objects.
// Numbers are kept as json.Number so they are written back exactly as
// received.
func decodeEntries(r *http.Request) ([]model.LogEntry, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var entries []model.LogEntry
	if err := dec.Decode(&entries); err != nil {
		return nil, err
	}
	if entries == nil {
		return nil, errors.New("body is null")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("unexpected data after JSON array")
	}
	for _, entry := range entries {
		if entry == nil {
			return nil, errors.New("null log entry")
		}
	}
	return entries, nil
}
