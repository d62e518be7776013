package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
)

func TestStaticSource(t *testing.T) {
	ctx := context.Background()
	source := NewStatic()

	_, err := source.LatestRound(ctx)
	if !token.IsCode(err, token.CodePriceInvalid) {
		t.Fatalf("expected price invalid before first push, got %v", err)
	}

	source.Set(324000000)
	round, err := source.LatestRound(ctx)
	if err != nil {
		t.Fatalf("latest round: %v", err)
	}
	if round.Price != 324000000 {
		t.Fatalf("expected 324000000, got %d", round.Price)
	}
	if round.UpdatedAt.IsZero() {
		t.Fatal("expected update timestamp")
	}
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"rates":{"USD":"3.24"}}}`))
	}))
	defer server.Close()

	source := NewHTTPSource("coinbase", server.URL, "data.rates.USD", server.Client())
	round, err := source.LatestRound(context.Background())
	if err != nil {
		t.Fatalf("latest round: %v", err)
	}
	if round.Price != 324000000 {
		t.Fatalf("expected 324000000, got %d", round.Price)
	}
}

func TestHTTPSourceFeedTimestamp(t *testing.T) {
	updated := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":3.24,"updated_at":"` + updated.Format(time.RFC3339) + `"}`))
	}))
	defer server.Close()

	source := NewHTTPSource("chainlink", server.URL, "price", server.Client()).
		WithTimestampPath("updated_at")
	round, err := source.LatestRound(context.Background())
	if err != nil {
		t.Fatalf("latest round: %v", err)
	}
	if !round.UpdatedAt.Equal(updated) {
		t.Fatalf("expected feed timestamp %s, got %s", updated, round.UpdatedAt)
	}
}

func TestHTTPSourceUnixTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":3.24,"ts":1767225600}`))
	}))
	defer server.Close()

	source := NewHTTPSource("chainlink", server.URL, "price", server.Client()).
		WithTimestampPath("ts")
	round, err := source.LatestRound(context.Background())
	if err != nil {
		t.Fatalf("latest round: %v", err)
	}
	if round.UpdatedAt.Unix() != 1767225600 {
		t.Fatalf("expected unix 1767225600, got %d", round.UpdatedAt.Unix())
	}
}

func TestHTTPSourceBadTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":3.24,"ts":"yesterday"}`))
	}))
	defer server.Close()

	source := NewHTTPSource("chainlink", server.URL, "price", server.Client()).
		WithTimestampPath("ts")
	_, err := source.LatestRound(context.Background())
	if !token.IsCode(err, token.CodePriceInvalid) {
		t.Fatalf("expected price invalid, got %v", err)
	}

	missing := NewHTTPSource("chainlink", server.URL, "price", server.Client()).
		WithTimestampPath("updated_at")
	_, err = missing.LatestRound(context.Background())
	if !token.IsCode(err, token.CodePriceInvalid) {
		t.Fatalf("expected price invalid for missing path, got %v", err)
	}
}

func TestHTTPSourceMissingPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	source := NewHTTPSource("coinbase", server.URL, "data.rates.USD", server.Client())
	_, err := source.LatestRound(context.Background())
	if !token.IsCode(err, token.CodePriceInvalid) {
		t.Fatalf("expected price invalid, got %v", err)
	}
}

func TestHTTPSourceRejectsNonPositive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":-1}`))
	}))
	defer server.Close()

	source := NewHTTPSource("bad", server.URL, "price", server.Client())
	_, err := source.LatestRound(context.Background())
	if !token.IsCode(err, token.CodePriceInvalid) {
		t.Fatalf("expected price invalid, got %v", err)
	}
}

func TestHTTPSourceErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source := NewHTTPSource("flaky", server.URL, "price", server.Client())
	if _, err := source.LatestRound(context.Background()); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
