package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

const DefaultURL = "https://34.27.224.230.nip.io/input"

// DefaultHeaders mimic a desktop browser so the target treats replayed
// traffic like ordinary clients.
var DefaultHeaders = map[string]string{
	"Content-Type":    "application/json",
	"Accept":          "*/*",
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3",
	"Accept-Encoding": "gzip, deflate, br",
	"Connection":      "keep-alive",
}

type HTTPConfig struct {
	URL                string            `yaml:"url"`
	Timeout            time.Duration     `yaml:"timeout"`
	InsecureSkipVerify bool              `yaml:"insecure_skip_verify"`
	Headers            map[string]string `yaml:"headers"`
	Debug              bool              `yaml:"debug"`
}

// HTTPStorage posts every report as its own JSON request.
type HTTPStorage struct {
	url     string
	headers map[string]string
	debug   bool
	client  *http.Client
}

func NewHTTPStorage(cfg HTTPConfig) *HTTPStorage {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxConnsPerHost = 1000
	t.MaxIdleConnsPerHost = 100
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}

	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}

	headers := make(map[string]string, len(DefaultHeaders)+len(cfg.Headers))
	for k, v := range DefaultHeaders {
		headers[k] = v
	}
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &HTTPStorage{
		url:     url,
		headers: headers,
		debug:   cfg.Debug,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: t,
		},
	}
}

func (hs *HTTPStorage) Store(ctx context.Context, report model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hs.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range hs.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := hs.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if hs.debug {
		body, err := readBody(resp)
		if err != nil {
			log.Printf("Failed to read response body: %v", err)
		} else {
			log.Printf("Response status code: %d body: %s", resp.StatusCode, body)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned error status: %s", resp.Status)
	}

	return nil
}

// StoreBatch sends the reports one request at a time and stops at the first failure.
func (hs *HTTPStorage) StoreBatch(ctx context.Context, reports []model.Report) error {
	for _, report := range reports {
		if err := hs.Store(ctx, report); err != nil {
			return err
		}
	}
	return nil
}

func (hs *HTTPStorage) Close() error {
	hs.client.CloseIdleConnections()
	return nil
}

// readBody returns the response body, inflating gzip and deflate encodings.
// Setting Accept-Encoding by hand turns off the transport's own decompression.
// Brotli bodies are returned as received.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}
	return io.ReadAll(r)
}
