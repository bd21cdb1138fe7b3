// Package remote provides an encoder capability backed by an HTTP
// inference server exposing tokenize and encode endpoints.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/sheldonrobinson/AI4All/internal/core/ports/driven"
)

// Ensure Encoder implements the interface.
var _ driven.Encoder = (*Encoder)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8580"
	DefaultTimeout = 60 * time.Second

	// DefaultRequestsPerSecond bounds the submission rate so a burst of
	// ingest workers does not overwhelm the inference server.
	DefaultRequestsPerSecond = 8
	DefaultBurst             = 16
)

// Config holds configuration for the remote encoder.
type Config struct {
	// BaseURL is the inference server base URL (default: http://localhost:8580).
	BaseURL string

	// Model names the encoder model to run (server-dependent).
	Model string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// RequestsPerSecond limits the encode submission rate.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size.
	Burst int
}

// Encoder submits tokenise and encode requests to a remote server. Encode
// requests run on a background goroutine and resolve through a future, so
// callers can poll without blocking.
type Encoder struct {
	client  *http.Client
	baseURL string
	model   string
	limiter *rate.Limiter

	inflight atomic.Int64

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type tokenizeRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

type tokenizeResponse struct {
	Tokens []int32 `json:"tokens"`
}

type encodeRequest struct {
	Model   string    `json:"model"`
	Batches [][]int32 `json:"batches"`
}

type encodeResponse struct {
	Data   []float32 `json:"data"`
	Batch  int       `json:"batch"`
	SeqLen int       `json:"seq_len"`
	Hidden int       `json:"hidden"`
}

// future carries the result of one encode call.
type future struct {
	done   chan struct{}
	tensor driven.Tensor
	err    error
}

func (f *future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *future) Result() (driven.Tensor, error) {
	<-f.done
	return f.tensor, f.err
}

// New creates a remote encoder client.
func New(cfg Config) *Encoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst == 0 {
		cfg.Burst = DefaultBurst
	}

	return &Encoder{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// Tokenize converts text to encoder token ids.
func (e *Encoder) Tokenize(text string) ([]int32, error) {
	reqBody := tokenizeRequest{
		Model: e.model,
		Text:  text,
	}

	var resp tokenizeResponse
	if err := e.post(context.Background(), "/v1/tokenize", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	return resp.Tokens, nil
}

// EncodeBatch submits token id batches and returns a future for the
// resulting [batch, seq, hidden] tensor.
func (e *Encoder) EncodeBatch(ctx context.Context, batches [][]int32) (driven.EncodeFuture, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, fmt.Errorf("encoder is shut down")
	}
	e.wg.Add(1)
	e.mu.Unlock()

	if err := e.limiter.Wait(ctx); err != nil {
		e.wg.Done()
		return nil, fmt.Errorf("rate wait: %w", err)
	}

	fut := &future{done: make(chan struct{})}
	e.inflight.Add(1)

	go func() {
		defer e.wg.Done()
		defer e.inflight.Add(-1)
		defer close(fut.done)

		reqBody := encodeRequest{
			Model:   e.model,
			Batches: batches,
		}

		var resp encodeResponse
		if err := e.post(ctx, "/v1/encode", reqBody, &resp); err != nil {
			fut.err = fmt.Errorf("encode: %w", err)
			return
		}

		want := resp.Batch * resp.SeqLen * resp.Hidden
		if len(resp.Data) != want {
			fut.err = fmt.Errorf("encode: tensor has %d values, header says %d",
				len(resp.Data), want)
			return
		}

		fut.tensor = driven.Tensor{
			Data:   resp.Data,
			Batch:  resp.Batch,
			SeqLen: resp.SeqLen,
			Hidden: resp.Hidden,
		}
	}()

	return fut, nil
}

// QueueDepth reports the number of in-flight encode requests.
func (e *Encoder) QueueDepth() int {
	return int(e.inflight.Load())
}

// Shutdown stops accepting new batches and waits for in-flight requests.
func (e *Encoder) Shutdown() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

// post sends a JSON request and decodes a JSON response.
func (e *Encoder) post(ctx context.Context, path string, in, out any) error {
	jsonBody, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		e.baseURL+path,
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("encoder error (status %d): failed to read response", resp.StatusCode)
		}
		return fmt.Errorf("encoder error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
