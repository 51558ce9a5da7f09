package quotes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type streamMessage struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Timestamp int64  `json:"ts"`
}

// StreamWS pushes the latest quote for one symbol on a fixed interval.
type StreamWS struct {
	origin   string
	provider Provider
	interval time.Duration
	upgrader websocket.Upgrader
}

func NewStreamWS(origin string, provider Provider) *StreamWS {
	return &StreamWS{
		origin:   origin,
		provider: provider,
		interval: 5 * time.Second,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return allowOrigin(r, origin) }},
	}
}

func (h *StreamWS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	symbol := NormalizeSymbol(r.URL.Query().Get("symbol"))
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	for {
		q, err := h.provider.Lookup(r.Context(), symbol)
		if err == nil {
			msg := streamMessage{Type: "quote", Symbol: q.Symbol, Name: q.Name, Price: q.Price.String(), Timestamp: time.Now().UTC().Unix()}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
		select {
		case <-ticker.C:
		case <-done:
			return
		}
	}
}

func allowOrigin(r *http.Request, origin string) bool {
	if origin == "*" {
		return true
	}
	return strings.EqualFold(r.Header.Get("Origin"), origin)
}
