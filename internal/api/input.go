package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/kafka"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/metrics"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

// InputServer receives weather reports and forwards them to the broker.
type InputServer struct {
	publisher Publisher
	srv       *http.Server
}

func NewInputServer(publisher Publisher) *InputServer {
	return &InputServer{publisher: publisher}
}

func (s *InputServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/input", instrument("/input", http.HandlerFunc(s.handleInput)))
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *InputServer) ListenAndServe(addr string) error {
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return serve(s.srv)
}

func (s *InputServer) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

func (s *InputServer) handleInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var report model.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		log.Printf("Invalid request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !report.Weather.Valid() {
		metrics.ReportsReceived.WithLabelValues(report.CountryOrUnknown(), string(report.Weather), "rejected").Inc()
		http.Error(w, "Invalid weather type", http.StatusBadRequest)
		return
	}

	key := r.Header.Get("X-Request-Id")
	if key == "" {
		key = report.Country
	}

	if err := s.publisher.ProduceBatch(r.Context(), []kafka.Record{{Key: key, Value: report}}); err != nil {
		log.Printf("Kafka publish error: %v", err)
		metrics.ReportsReceived.WithLabelValues(report.CountryOrUnknown(), string(report.Weather), "failed").Inc()
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	metrics.ReportsReceived.WithLabelValues(report.CountryOrUnknown(), string(report.Weather), "accepted").Inc()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
