package pricefeed

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTPSource polls a JSON endpoint and extracts the price with a gjson path,
// for example "data.rates.USD". The decimal value is scaled to 8-decimal
// fixed point.
type HTTPSource struct {
	name     string
	url      string
	path     string
	timePath string
	client   *http.Client
}

var _ Source = (*HTTPSource)(nil)

// NewHTTPSource creates an HTTP price source. A nil client gets a default
// with a 10s timeout.
func NewHTTPSource(name, url, path string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPSource{name: name, url: url, path: path, client: client}
}

// WithTimestampPath sets a gjson path for the feed's own update time, either
// unix seconds or RFC 3339. Without it rounds are stamped at fetch time, so
// the stabilization engine's max price age cannot detect a stalled feed.
func (s *HTTPSource) WithTimestampPath(path string) *HTTPSource {
	s.timePath = path
	return s
}

func (s *HTTPSource) Name() string { return s.name }

func (s *HTTPSource) LatestRound(ctx context.Context) (Round, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Round{}, fmt.Errorf("build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Round{}, fmt.Errorf("fetch price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Round{}, fmt.Errorf("fetch price: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Round{}, fmt.Errorf("read price response: %w", err)
	}

	result := gjson.GetBytes(body, s.path)
	if !result.Exists() {
		return Round{}, token.PriceInvalid("path %q not found in %s response", s.path, s.name)
	}
	value := result.Float()
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return Round{}, token.PriceInvalid("source %s returned unusable price %v", s.name, value)
	}

	scaled := value * math.Pow10(token.PriceDecimals)
	if scaled > math.MaxInt64 {
		return Round{}, token.PriceInvalid("source %s price %v overflows fixed point", s.name, value)
	}

	updatedAt := time.Now()
	if s.timePath != "" {
		updatedAt, err = s.feedTime(body)
		if err != nil {
			return Round{}, err
		}
	}
	return Round{
		Price:     int64(math.Round(scaled)),
		UpdatedAt: updatedAt,
	}, nil
}

func (s *HTTPSource) feedTime(body []byte) (time.Time, error) {
	result := gjson.GetBytes(body, s.timePath)
	if !result.Exists() {
		return time.Time{}, token.PriceInvalid("time path %q not found in %s response", s.timePath, s.name)
	}
	switch result.Type {
	case gjson.Number:
		return time.Unix(result.Int(), 0), nil
	case gjson.String:
		ts, err := time.Parse(time.RFC3339, result.String())
		if err != nil {
			return time.Time{}, token.PriceInvalid("source %s returned unusable timestamp %q", s.name, result.String())
		}
		return ts, nil
	default:
		return time.Time{}, token.PriceInvalid("source %s returned unusable timestamp %s", s.name, result.Raw)
	}
}
