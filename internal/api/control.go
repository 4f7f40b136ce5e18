package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RateSetter changes the pace of a running replay.
type RateSetter interface {
	SetRate(newRate int)
}

// ControlServer lets an operator retune a traffic run while it is in flight.
type ControlServer struct {
	eng RateSetter
}

func NewControlServer(eng RateSetter) *ControlServer {
	return &ControlServer{eng: eng}
}

func (s *ControlServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate", s.handleRate)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *ControlServer) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

func (s *ControlServer) handleRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Rate int `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Rate < 0 {
		http.Error(w, "Rate must be non-negative", http.StatusBadRequest)
		return
	}

	s.eng.SetRate(req.Rate)
	w.WriteHeader(http.StatusOK)
	if req.Rate == 0 {
		fmt.Fprintln(w, "Rate limit removed")
		return
	}
	fmt.Fprintf(w, "Rate updated to %d requests/sec\n", req.Rate)
}
