// Package server exposes the agents, market data and the news-impact pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fingreat/internal/agents"
	"fingreat/internal/conversation"
	"fingreat/internal/impact"
	"fingreat/internal/logger"
	"fingreat/internal/types"
)

type Master interface {
	Handle(ctx context.Context, q agents.Query) (string, error)
}

// Orders confirms or cancels orders the trading agent is holding for approval.
type Orders interface {
	Confirm(ctx context.Context, userID, id string) (types.OrderResp, error)
	Cancel(ctx context.Context, userID, id string) error
}

type Prices interface {
	All() map[string]types.MarketPrice
	Get(symbol string) (types.MarketPrice, bool)
}

type Candles interface {
	Range(ctx context.Context, symbol string, from, to time.Time) ([]types.Candle, error)
}

type Impact interface {
	Validate(req types.ImpactRequest) error
	Run(ctx context.Context, req types.ImpactRequest, emit impact.Emit) (types.Verdict, error)
}

// Deps are the services the handlers call.
type Deps struct {
	Master        Master
	Orders        Orders
	Conversations conversation.Store
	Prices        Prices
	Candles       Candles
	Impact        Impact
}

type Server struct {
	router *mux.Router
	deps   Deps
	server *http.Server
}

func New(addr string, readTimeout, writeTimeout time.Duration, deps Deps) *Server {
	s := &Server{router: mux.NewRouter(), deps: deps}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s
}

// Handler is the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return withCORS(withRequestLog(s.router))
}

func (s *Server) registerRoutes() {
	r := s.router
	r.HandleFunc("/", s.handleWelcome).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/market_prices", s.handleMarketPrices).Methods(http.MethodGet)
	r.HandleFunc("/market_price/{symbol}", s.handleMarketPrice).Methods(http.MethodGet)
	r.HandleFunc("/time_series_price", s.handleTimeSeries).Methods(http.MethodGet)
	r.HandleFunc("/process_news", s.handleProcessNews).Methods(http.MethodPost)

	r.HandleFunc("/{user_id}/agents/{agent_name}/conversations", s.handleGetConversations).Methods(http.MethodGet)
	r.HandleFunc("/{user_id}/agents/{agent_name}/conversations", s.handleClearConversations).Methods(http.MethodDelete)
	r.HandleFunc("/{user_id}/agents/master_agent", s.handleMasterAgent).Methods(http.MethodPost)

	r.HandleFunc("/{user_id}/orders", s.handleOrders).Methods(http.MethodGet)
	r.HandleFunc("/{user_id}/orders/{order_id}/confirm", s.handleConfirmOrder).Methods(http.MethodPost)
	r.HandleFunc("/{user_id}/orders/{order_id}", s.handleCancelOrder).Methods(http.MethodDelete)
}

func (s *Server) Start() error {
	logger.Info(context.Background(), "API server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
