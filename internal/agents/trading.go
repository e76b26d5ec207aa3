package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"fingreat/internal/conversation"
	"fingreat/internal/instruments"
	"fingreat/internal/interfaces"
	"fingreat/internal/llm"
	"fingreat/internal/logger"
	"fingreat/internal/tools"
	"fingreat/internal/trace"
	"fingreat/internal/types"
)

// toolReply is the JSON contract of every trading-model reply.
type toolReply struct {
	Function  string          `json:"function"`
	Arguments json.RawMessage `json:"arguments"`
	Response  string          `json:"response"`
}

// args decodes Arguments. Models told to leave it empty send "", null, [] or {};
// anything that is not a JSON object counts as no arguments.
func (r toolReply) args() (tools.Args, error) {
	raw := strings.TrimSpace(string(r.Arguments))
	if !strings.HasPrefix(raw, "{") {
		return tools.Args{}, nil
	}
	var a tools.Args
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, err
	}
	if a == nil {
		a = tools.Args{}
	}
	return a, nil
}

var affirmative = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "sure": true,
	"confirm": true, "confirmed": true, "proceed": true, "ok": true, "okay": true, "place it": true,
}

// TradingAgent runs the tool-call loop: the model asks for a tool, the result goes back
// into the conversation, and the loop repeats until the model answers without one.
type TradingAgent struct {
	llm      interfaces.Completer
	store    conversation.Store
	registry *tools.Registry
	trading  *tools.Trading
	catalog  *instruments.Catalog
	pending  *PendingOrders
	opts     Options
}

func NewTradingAgent(c interfaces.Completer, s conversation.Store, registry *tools.Registry, trading *tools.Trading, catalog *instruments.Catalog, opts Options) *TradingAgent {
	return &TradingAgent{
		llm:      c,
		store:    s,
		registry: registry,
		trading:  trading,
		catalog:  catalog,
		pending:  NewPendingOrders(opts.PendingTTL),
		opts:     opts,
	}
}

func (a *TradingAgent) Handle(ctx context.Context, userID, company, query string) (reply string, err error) {
	ctx, span := trace.StartSpan(ctx, "agents.Trading")
	defer span.End()
	defer func() { observe(Trading, err) }()
	ctx = tools.WithUser(ctx, userID)

	balance, err := a.trading.Balance(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch account balance: %w", err)
	}
	system := tradingPrompt(a.registry.Catalogue(), a.catalog.PromptTable(), company, balance.StringFixed(2))

	if err := a.store.Append(ctx, conversation.TradingAgent, userID, types.Turn{User: query}); err != nil {
		return "", err
	}

	if po, ok := a.pending.Take(userID); ok {
		var note string
		if isAffirmative(query) {
			note = toolResultTurn(tools.PlaceOrder, a.execute(ctx, po))
		} else {
			logger.Agent(ctx, Trading, "order_cancelled", "order", po.ID)
			note = fmt.Sprintf("[Order %s cancelled by user]", po.ID)
		}
		if err := a.store.Append(ctx, conversation.TradingAgent, userID, types.Turn{User: note}); err != nil {
			return "", err
		}
	}

	return a.loop(ctx, userID, system)
}

func (a *TradingAgent) loop(ctx context.Context, userID, system string) (string, error) {
	calls := 0
	for {
		history, err := a.store.History(ctx, conversation.TradingAgent, userID)
		if err != nil {
			return "", err
		}
		raw, err := a.llm.Complete(ctx, types.CompletionRequest{System: system, Prompt: conversation.FormatHistory(history)})
		if err != nil {
			return "", err
		}

		var r toolReply
		if err := llm.ExtractJSON(raw, &r); err != nil {
			logger.Warn(ctx, "Trading reply is not JSON, returning it as text", "error", err)
			return a.finish(ctx, userID, raw)
		}
		if err := a.store.SetLastReply(ctx, conversation.TradingAgent, userID, r.Response); err != nil {
			return "", err
		}
		if strings.TrimSpace(r.Function) == "" {
			return r.Response, nil
		}
		tool, ok := a.registry.Lookup(r.Function)
		if !ok {
			logger.Agent(ctx, Trading, "unknown_tool", "tool", r.Function)
			return r.Response, nil
		}

		if a.opts.MaxToolIterations > 0 && calls >= a.opts.MaxToolIterations {
			return a.finish(ctx, userID, fmt.Sprintf("Stopped after %d tool calls without a final answer.", calls))
		}
		calls++

		result, question := a.invoke(ctx, userID, tool, r)
		if question != "" {
			return a.finish(ctx, userID, question)
		}
		if err := a.store.Append(ctx, conversation.TradingAgent, userID, types.Turn{User: toolResultTurn(tool.Name, result)}); err != nil {
			return "", err
		}
	}
}

// invoke runs the requested tool. When an order needs the user's confirmation it returns
// the question to ask instead of a result.
func (a *TradingAgent) invoke(ctx context.Context, userID string, tool tools.Tool, r toolReply) (result, question string) {
	logger.Agent(ctx, Trading, "tool_requested", "tool", tool.Name, "arguments", string(r.Arguments))

	args, err := r.args()
	if err != nil {
		return actionError(tool.Name, fmt.Errorf("bad arguments: %w", err)), ""
	}

	if tool.Name == tools.PlaceOrder && a.opts.ConfirmOrders {
		req, err := a.trading.ParseOrder(args)
		if err != nil {
			return actionError(tool.Name, err), ""
		}
		po := a.pending.Put(userID, req)
		logger.Agent(ctx, Trading, "order_pending", "order", po.ID, "symbol", req.Symbol, "side", req.Side, "qty", req.Qty)
		return "", fmt.Sprintf(`Please confirm: %s. Reply "yes" to place the order or "no" to cancel. [order %s]`, po.Describe(), po.ID)
	}

	out, err := a.registry.Call(ctx, tool.Name, args)
	if err != nil {
		return actionError(tool.Name, err), ""
	}
	return out, ""
}

func (a *TradingAgent) execute(ctx context.Context, po PendingOrder) string {
	resp, err := a.trading.Execute(ctx, po.Req)
	if err != nil {
		return actionError(tools.PlaceOrder, err)
	}
	logger.Agent(ctx, Trading, "order_confirmed", "order", po.ID, "order_id", resp.OrderID)
	return resp.OrderID
}

// Confirm places the user's pending order with the given id.
func (a *TradingAgent) Confirm(ctx context.Context, userID, id string) (types.OrderResp, error) {
	po, err := a.pending.TakeID(userID, id)
	if err != nil {
		return types.OrderResp{}, err
	}
	ctx = tools.WithUser(ctx, userID)
	resp, err := a.trading.Execute(ctx, po.Req)
	if err != nil {
		return types.OrderResp{}, err
	}
	if err := a.store.Append(ctx, conversation.TradingAgent, userID, types.Turn{User: toolResultTurn(tools.PlaceOrder, resp.OrderID)}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to record confirmed order in conversation", err, "order", po.ID, "order_id", resp.OrderID)
	}
	return resp, nil
}

// Cancel drops the user's pending order with the given id.
func (a *TradingAgent) Cancel(ctx context.Context, userID, id string) error {
	po, err := a.pending.TakeID(userID, id)
	if err != nil {
		return err
	}
	return a.store.Append(ctx, conversation.TradingAgent, userID, types.Turn{User: fmt.Sprintf("[Order %s cancelled by user]", po.ID)})
}

func (a *TradingAgent) finish(ctx context.Context, userID, reply string) (string, error) {
	if err := a.store.SetLastReply(ctx, conversation.TradingAgent, userID, reply); err != nil {
		return "", err
	}
	return reply, nil
}

func toolResultTurn(name, result string) string {
	return fmt.Sprintf("[Tool result for %s is %s]", name, result)
}

func actionError(function string, err error) string {
	return fmt.Sprintf("Error performing the action %s due to %v", strings.ReplaceAll(function, "_", " "), err)
}

// isAffirmative accepts "yes", "Yes, please" or "ok go ahead": the whole answer or its
// first word must be in the affirmative set.
func isAffirmative(s string) bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return false
	}
	return affirmative[strings.Join(words, " ")] || affirmative[words[0]]
}
