package portfolio

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"stocksim/internal/httputil"
	"stocksim/internal/quotes"
	"stocksim/internal/store"
	"stocksim/internal/types"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type tradeRequest struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
}

type depositRequest struct {
	Amount string `json:"amount"`
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request, userID string) {
	view, err := h.svc.View(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if view.Holdings == nil {
		view.Holdings = []Holding{}
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) Buy(w http.ResponseWriter, r *http.Request, userID string) {
	var req tradeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	t, err := h.svc.Buy(r.Context(), userID, req.Symbol, req.Shares)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"trade_id": t.ID, "status": "ok"})
}

func (h *Handler) Sell(w http.ResponseWriter, r *http.Request, userID string) {
	var req tradeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	t, err := h.svc.Sell(r.Context(), userID, req.Symbol, req.Shares)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"trade_id": t.ID, "status": "ok"})
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request, userID string) {
	var req depositRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httputil.WriteJSON(w, http.StatusForbidden, httputil.ErrorResponse{Error: "invalid amount"})
		return
	}
	cash, err := h.svc.Deposit(r.Context(), userID, amount)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"cash": cash.StringFixed(2)})
}

type historyItem struct {
	Symbol    string          `json:"symbol"`
	Shares    int64           `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Side      types.TradeSide `json:"side"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request, userID string) {
	trades, err := h.svc.History(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	items := make([]historyItem, 0, len(trades))
	for _, t := range trades {
		items = append(items, historyItem{
			Symbol:    t.Symbol,
			Shares:    t.Shares,
			Price:     t.Price,
			Side:      t.Side(),
			CreatedAt: t.CreatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request, userID string) {
	symbol := r.URL.Query().Get("symbol")
	if quotes.NormalizeSymbol(symbol) == "" {
		httputil.WriteJSON(w, http.StatusForbidden, httputil.ErrorResponse{Error: ErrSymbolRequired.Error()})
		return
	}
	q, err := h.svc.Quote(r.Context(), symbol)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}

// statusFor maps rejections to the 403 the apology surface uses;
// anything unexpected is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, quotes.ErrSymbolNotFound),
		errors.Is(err, ErrSymbolRequired),
		errors.Is(err, ErrInvalidShares),
		errors.Is(err, ErrNegativeShares),
		errors.Is(err, store.ErrInsufficientCash),
		errors.Is(err, store.ErrInsufficientShares),
		errors.Is(err, store.ErrNoPosition),
		errors.Is(err, store.ErrInvalidAmount):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
