package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

func TestInput_Accepted(t *testing.T) {
	pub := &fakePublisher{}
	h := NewInputServer(pub).Handler()

	req := httptest.NewRequest(http.MethodPost, "/input",
		strings.NewReader(`{"description":"Estado del tiempo en GT.","country":"GT","weather":"lluvioso"}`))
	req.Header.Set("X-Request-Id", "req-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"status":"accepted"}`, w.Body.String())

	require.Len(t, pub.records, 1)
	assert.Equal(t, "req-1", pub.records[0].Key)
	assert.Equal(t, model.Report{Description: "Estado del tiempo en GT.", Country: "GT", Weather: model.Rainy}, pub.records[0].Value)
}

func TestInput_KeyFallsBackToCountry(t *testing.T) {
	pub := &fakePublisher{}
	h := NewInputServer(pub).Handler()

	w := do(h, http.MethodPost, "/input", `{"description":"d","country":"MX","weather":"soleado"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, pub.records, 1)
	assert.Equal(t, "MX", pub.records[0].Key)
}

func TestInput_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"unknown weather", http.MethodPost, `{"country":"GT","weather":"nevado"}`, http.StatusBadRequest},
		{"missing weather", http.MethodPost, `{"country":"GT"}`, http.StatusBadRequest},
		{"malformed", http.MethodPost, `{"country":`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			w := do(NewInputServer(pub).Handler(), tt.method, "/input", tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.Empty(t, pub.records)
		})
	}
}

func TestInput_PublishFailure(t *testing.T) {
	h := NewInputServer(&fakePublisher{err: errors.New("broker down")}).Handler()

	w := do(h, http.MethodPost, "/input", `{"country":"GT","weather":"nubloso"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
