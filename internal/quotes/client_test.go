package quotes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func newQuoteServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/stable/stock/AAPL/quote" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"symbol":"AAPL","companyName":"Apple Inc","latestPrice":123.45}`)
	}))
}

func TestLookup(t *testing.T) {
	srv := newQuoteServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, "test-key")

	q, err := c.Lookup(context.Background(), " aapl ")
	if err != nil {
		t.Fatal(err)
	}
	if q.Symbol != "AAPL" {
		t.Fatalf("symbol = %q, want AAPL", q.Symbol)
	}
	if q.Name != "Apple Inc" {
		t.Fatalf("name = %q", q.Name)
	}
	if !q.Price.Equal(decimal.RequireFromString("123.45")) {
		t.Fatalf("price = %s, want 123.45", q.Price)
	}
}

func TestLookupUnknownSymbol(t *testing.T) {
	srv := newQuoteServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, "test-key")

	if _, err := c.Lookup(context.Background(), "NOPE"); !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrSymbolNotFound)
	}
}

func TestLookupEmptySymbol(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "test-key")
	if _, err := c.Lookup(context.Background(), "   "); !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrSymbolNotFound)
	}
}

func TestLookupProviderFailure(t *testing.T) {
	srv := newQuoteServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, "wrong-key")

	_, err := c.Lookup(context.Background(), "AAPL")
	if err == nil || errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("err = %v, want a provider error", err)
	}
}
