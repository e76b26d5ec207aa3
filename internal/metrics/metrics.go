package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	AgentRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fingreat_agent_requests_total",
			Help: "Queries handled per agent",
		},
		[]string{"agent", "result"},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fingreat_tool_calls_total",
			Help: "Tool invocations requested by the trading agent",
		},
		[]string{"tool", "result"},
	)

	LLMLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fingreat_llm_request_duration_seconds",
			Help:    "Completion and embedding latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"operation"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fingreat_llm_requests_total",
			Help: "Completion and embedding calls",
		},
		[]string{"operation", "result"},
	)

	BrokerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fingreat_broker_requests_total",
			Help: "Brokerage API calls",
		},
		[]string{"operation", "result"},
	)

	Orders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fingreat_orders_total",
			Help: "Orders placed through the trading agent",
		},
		[]string{"side", "status"},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fingreat_impact_pipeline_runs_total",
			Help: "News impact analyses by verdict",
		},
		[]string{"result"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fingreat_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half_open)",
		},
		[]string{"service"},
	)
)

// Result maps an error to the bounded result label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
