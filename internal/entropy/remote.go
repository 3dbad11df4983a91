package entropy

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	randomOrgURL = "https://api.random.org/json-rpc/4/invoke"

	remoteBatch   = 100
	remoteLow     = 10
	remoteTimeout = 15 * time.Second
	remoteBackoff = 30 * time.Second
)

// ErrRemoteRPC is returned when random.org answers with a JSON-RPC error.
var ErrRemoteRPC = errors.New("random.org rpc error")

type fractionsRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  fractionsParams `json:"params"`
	ID      int             `json:"id"`
}

type fractionsParams struct {
	APIKey        string `json:"apiKey"`
	N             int    `json:"n"`
	DecimalPlaces int    `json:"decimalPlaces"`
}

type fractionsResponse struct {
	Result *struct {
		Random struct {
			Data []float64 `json:"data"`
		} `json:"random"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Remote draws true random numbers from random.org through a local pool,
// falling back to crypto/rand when the API is unreachable. It is only suitable
// for live play; replays and tests use Seeded.
type Remote struct {
	apiKey string
	client *http.Client
	url    string
	// attempts allows one fetch per remoteBackoff.
	attempts *rate.Limiter

	mu   sync.Mutex
	pool []float64
	reqs int
}

// NewRemote creates a random.org backed source. Returns nil if apiKey is empty.
func NewRemote(apiKey string) *Remote {
	if apiKey == "" {
		return nil
	}
	return &Remote{
		apiKey:   apiKey,
		client:   &http.Client{Timeout: remoteTimeout},
		url:      randomOrgURL,
		attempts: rate.NewLimiter(rate.Every(remoteBackoff), 1),
	}
}

// Float64 returns a value in [0, 1). Draws come from the pool while it lasts;
// a low pool triggers a fetch when the backoff allows one.
func (r *Remote) Float64() float64 {
	if r == nil {
		return cryptoFloat()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pool) < remoteLow && r.attempts.Allow() {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		vals, err := r.fetch(ctx, remoteBatch)
		cancel()
		if err != nil {
			slog.Warn("entropy pool not refilled", "pool", len(r.pool), "error", err)
		} else {
			r.pool = append(r.pool, vals...)
		}
	}
	if len(r.pool) == 0 {
		return cryptoFloat()
	}

	v := r.pool[0]
	r.pool = r.pool[1:]
	return v
}

func (r *Remote) IntN(n int) int {
	if n <= 0 {
		panic("entropy: IntN called with n <= 0")
	}
	i := int(r.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// fetch asks for n decimal fractions. Values outside [0, 1) are dropped.
func (r *Remote) fetch(ctx context.Context, n int) ([]float64, error) {
	r.reqs++
	body, err := json.Marshal(fractionsRequest{
		JSONRPC: "2.0",
		Method:  "generateDecimalFractions",
		Params:  fractionsParams{APIKey: r.apiKey, N: n, DecimalPlaces: 8},
		ID:      r.reqs,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("random.org status %d", resp.StatusCode)
	}

	var out fractionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("%w %d: %s", ErrRemoteRPC, out.Error.Code, out.Error.Message)
	}
	if out.Result == nil {
		return nil, fmt.Errorf("%w: empty result", ErrRemoteRPC)
	}

	vals := make([]float64, 0, len(out.Result.Random.Data))
	for _, v := range out.Result.Random.Data {
		if v >= 0 && v < 1 {
			vals = append(vals, v)
		}
	}
	slog.Debug("entropy pool refilled", "count", len(vals))
	return vals, nil
}

// cryptoFloat generates a uniform float64 in [0, 1) from crypto/rand.
func cryptoFloat() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
