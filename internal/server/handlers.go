package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"fingreat/internal/agents"
	"fingreat/internal/conversation"
	"fingreat/internal/instruments"
	"fingreat/internal/logger"
	"fingreat/internal/tradelog"
	"fingreat/internal/types"
)

const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.ErrorWithErr(r.Context(), "Failed to encode JSON response", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Welcome to FinGReaT!"))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Market data

func (s *Server) handleMarketPrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.deps.Prices.All())
}

func (s *Server) handleMarketPrice(w http.ResponseWriter, r *http.Request) {
	p, ok := s.deps.Prices.Get(mux.Vars(r)["symbol"])
	if !ok {
		writeError(w, r, http.StatusNotFound, "Symbol not found")
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

type candleJSON struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	company := q.Get("company")
	if company == "" {
		writeError(w, r, http.StatusBadRequest, "Please send company name")
		return
	}
	from, err1 := time.ParseInLocation(dateLayout, q.Get("from_date"), types.IST)
	to, err2 := time.ParseInLocation(dateLayout, q.Get("to_date"), types.IST)
	if err1 != nil || err2 != nil {
		writeError(w, r, http.StatusBadRequest, "from_date and to_date must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, r, http.StatusBadRequest, "from_date must not be after to_date")
		return
	}

	cs, err := s.deps.Candles.Range(r.Context(), company, from, to)
	switch {
	case errors.Is(err, instruments.ErrUnknownInstrument):
		writeError(w, r, http.StatusNotFound, "Symbol not found")
		return
	case err != nil:
		logger.ErrorWithErr(r.Context(), "Candle fetch failed", err, "company", company)
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	out := make([]candleJSON, 0, len(cs))
	for _, c := range cs {
		out = append(out, candleJSON{Date: c.Day(), Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Vol})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleProcessNews streams one JSON status per line, then the verdict line.
// A failure after streaming has begun is reported as a final {"error": ...} line.
func (s *Server) handleProcessNews(w http.ResponseWriter, r *http.Request) {
	var req types.ImpactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Impact.Validate(req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	line := func(v any) {
		if err := enc.Encode(v); err != nil {
			logger.Warn(r.Context(), "Failed to stream line", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	verdict, err := s.deps.Impact.Run(r.Context(), req, func(st types.ImpactStatus) { line(st) })
	if err != nil {
		logger.ErrorWithErr(r.Context(), "News impact analysis failed", err, "ticker", req.CompanyTicker)
		line(map[string]string{"error": err.Error()})
		return
	}
	line(verdict)
}

// Conversations

func (s *Server) handleGetConversations(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	turns, err := s.deps.Conversations.History(r.Context(), v["agent_name"], v["user_id"])
	if err != nil {
		s.conversationError(w, r, err)
		return
	}
	if turns == nil {
		turns = []types.Turn{}
	}
	writeJSON(w, r, http.StatusOK, turns)
}

func (s *Server) handleClearConversations(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	if err := s.deps.Conversations.Clear(r.Context(), v["agent_name"], v["user_id"]); err != nil {
		s.conversationError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Conversations cleared successfully"})
}

func (s *Server) conversationError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, conversation.ErrUnknownAgent) {
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, r, http.StatusInternalServerError, err.Error())
}

type masterRequest struct {
	Query              string  `json:"query"`
	Company            string  `json:"company"`
	News               *string `json:"news"`
	MovementPrediction *string `json:"movement_prediction"`
	Explanation        *string `json:"explanation"`
}

// partial reports whether some but not all news fields were sent.
func (m masterRequest) partial() bool {
	n := 0
	for _, p := range []*string{m.News, m.MovementPrediction, m.Explanation} {
		if p != nil {
			n++
		}
	}
	return n > 0 && n < 3
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (s *Server) handleMasterAgent(w http.ResponseWriter, r *http.Request) {
	var body masterRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if body.partial() {
		writeError(w, r, http.StatusBadRequest, "Either provide all of movement_prediction, explanation, and news, or none of them")
		return
	}
	if strings.TrimSpace(body.Company) == "" {
		writeError(w, r, http.StatusBadRequest, "Please send company name")
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeError(w, r, http.StatusBadRequest, "Please send user query")
		return
	}

	reply, err := s.deps.Master.Handle(r.Context(), agents.Query{
		UserID:             mux.Vars(r)["user_id"],
		Company:            body.Company,
		Text:               body.Query,
		News:               deref(body.News),
		MovementPrediction: deref(body.MovementPrediction),
		Explanation:        deref(body.Explanation),
	})
	switch {
	case errors.Is(err, agents.ErrPartialNewsContext):
		writeError(w, r, http.StatusBadRequest, "Either provide all of movement_prediction, explanation, and news, or none of them")
		return
	case err != nil:
		logger.ErrorWithErr(r.Context(), "Master agent failed", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"response": reply})
}

// Orders

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	entries, err := tradelog.ReadDay(time.Now())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, tradelog.ForUser(entries, mux.Vars(r)["user_id"]))
}

func (s *Server) handleConfirmOrder(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	resp, err := s.deps.Orders.Confirm(r.Context(), v["user_id"], v["order_id"])
	switch {
	case errors.Is(err, agents.ErrNoPendingOrder):
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	err := s.deps.Orders.Cancel(r.Context(), v["user_id"], v["order_id"])
	switch {
	case errors.Is(err, agents.ErrNoPendingOrder):
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Order cancelled"})
}
