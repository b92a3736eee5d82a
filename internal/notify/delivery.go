package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	errorBodyLimit = 1024
	userAgent      = "netloc-sentinel"
)

type timingConfig struct {
	timeout      time.Duration
	rateInterval time.Duration
	rateBurst    int
	retries      int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

var defaultTiming = timingConfig{
	timeout:      10 * time.Second,
	rateInterval: time.Second,
	rateBurst:    1,
	retries:      4,
	retryWaitMin: time.Second,
	retryWaitMax: 10 * time.Second,
}

// delivery posts JSON payloads to one endpoint. Transport errors, 429 and 5xx
// responses are retried by retryablehttp, which honors Retry-After.
type delivery struct {
	name   string
	url    string
	client *retryablehttp.Client
	timing timingConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newDelivery(logger zerolog.Logger, name, url string, timing timingConfig) *delivery {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = timing.timeout
	client.RetryMax = timing.retries
	client.RetryWaitMin = timing.retryWaitMin
	client.RetryWaitMax = timing.retryWaitMax
	client.Logger = nil
	// Hand the final response back so the status and body end up in the error.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.RequestLogHook = func(_ retryablehttp.Logger, _ *http.Request, attempt int) {
		if attempt > 0 {
			logger.Debug().Str("endpoint", name).Int("retry", attempt).Msg("retrying notification delivery")
		}
	}

	return &delivery{
		name:     name,
		url:      url,
		client:   client,
		timing:   timing,
		limiters: make(map[string]*rate.Limiter),
	}
}

// send waits for the rate limit of key, then posts payload.
func (d *delivery) send(ctx context.Context, key string, payload []byte) error {
	if err := d.limiter(key).Wait(ctx); err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, d.url, payload)
	if err != nil {
		return fmt.Errorf("build %s request: %w", d.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", d.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	if text := strings.TrimSpace(string(body)); text != "" {
		return fmt.Errorf("%s request failed: %s (%s)", d.name, resp.Status, text)
	}
	return fmt.Errorf("%s request failed: %s", d.name, resp.Status)
}

// limiter returns the limiter for key, creating it on first use.
func (d *delivery) limiter(key string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()

	limiter, ok := d.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(d.timing.rateInterval), d.timing.rateBurst)
		d.limiters[key] = limiter
	}
	return limiter
}
