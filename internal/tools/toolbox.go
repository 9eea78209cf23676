package tools

import (
	"context"
	"encoding/json"
	"log"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/divakaivan/voice2voice-banking-assistant/internal/transactions"
)

// Queries is the slice of the transaction store the toolbox needs.
type Queries interface {
	Recent(ctx context.Context, f transactions.RecentFilter) ([]transactions.Transaction, error)
	Summarize(ctx context.Context, period string) (map[string]float64, error)
	Anomalies(ctx context.Context, threshold float64, period string) ([]transactions.Transaction, error)
}

// defaultBudgets is applied when the model asks for budget status without
// supplying its own limits.
var defaultBudgets = map[string]float64{
	"Cosmetic":    20000,
	"Travel":      100000,
	"Clothing":    300000,
	"Electronics": 150000,
	"Restaurant":  200000,
	"Market":      100000,
}

// Toolbox exposes the transaction query capabilities to the agent. Failures
// inside a capability never escape: they are logged and degrade to an empty
// result, so a broken tool cannot abort the user-facing turn.
type Toolbox struct {
	store Queries
}

func New(store Queries) *Toolbox {
	return &Toolbox{store: store}
}

// Specs describes the capabilities in the chat-completions tool format.
func (t *Toolbox) Specs() []openai.ChatCompletionToolUnionParam {
	return []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        "get_recent_transactions",
			Description: openai.String("Retrieve the most recent transactions, optionally filtered by start/end date (YYYY-MM-DD), category, merchant, and result count."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"start_date": map[string]any{"type": "string", "description": "Earliest date to include, YYYY-MM-DD"},
					"end_date":   map[string]any{"type": "string", "description": "Latest date to include, YYYY-MM-DD"},
					"category":   map[string]any{"type": "string", "description": "Transaction category, e.g. Travel"},
					"merchant":   map[string]any{"type": "string", "description": "Merchant name"},
					"limit":      map[string]any{"type": "integer", "description": "Number of transactions to return, default 5"},
				},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        "summarize_spending",
			Description: openai.String("Summarize spending by category for a time period such as 'this week' or 'last month', optionally with per-category budget status."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"time_period":          map[string]any{"type": "string", "description": "Period to summarize, e.g. 'this week' or 'last month'"},
					"return_budget_status": map[string]any{"type": "boolean", "description": "Whether to classify each category against its budget"},
					"budget_limits":        map[string]any{"type": "object", "description": "Budget limit per category", "additionalProperties": map[string]any{"type": "number"}},
				},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        "detect_unusual_spending",
			Description: openai.String("Identify transactions that deviate from usual spending. Defaults to 1.5x the period's mean amount when no threshold is given."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"threshold":      map[string]any{"type": "number", "description": "Amount threshold; transactions strictly above it are flagged"},
					"time_period":    map[string]any{"type": "string", "description": "Period to analyze, e.g. 'last month' or 'this week'"},
					"specific_month": map[string]any{"type": "string", "description": "Explicit month to analyze, YYYY-MM"},
				},
			},
		}),
	}
}

// Invoke dispatches one capability call and returns its JSON result. An
// unknown name, malformed arguments, or a query failure all degrade to an
// empty result.
func (t *Toolbox) Invoke(ctx context.Context, name, args string) string {
	switch name {
	case "get_recent_transactions":
		return t.recentTransactions(ctx, args)
	case "summarize_spending":
		return t.summarizeSpending(ctx, args)
	case "detect_unusual_spending":
		return t.detectUnusualSpending(ctx, args)
	}
	log.Printf("tools: unknown capability %q", name)
	return "[]"
}

func (t *Toolbox) recentTransactions(ctx context.Context, args string) string {
	var a struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Category  string `json:"category"`
		Merchant  string `json:"merchant"`
		Limit     int    `json:"limit"`
	}
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		log.Printf("tools: get_recent_transactions bad arguments: %v", err)
		return "[]"
	}
	txns, err := t.store.Recent(ctx, transactions.RecentFilter{
		StartDate: a.StartDate,
		EndDate:   a.EndDate,
		Category:  a.Category,
		Merchant:  a.Merchant,
		Limit:     a.Limit,
	})
	if err != nil {
		log.Printf("tools: get_recent_transactions query failed: %v", err)
		return "[]"
	}
	return marshalList(txns)
}

func (t *Toolbox) summarizeSpending(ctx context.Context, args string) string {
	var a struct {
		TimePeriod         string             `json:"time_period"`
		ReturnBudgetStatus bool               `json:"return_budget_status"`
		BudgetLimits       map[string]float64 `json:"budget_limits"`
	}
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		log.Printf("tools: summarize_spending bad arguments: %v", err)
		return "{}"
	}
	totals, err := t.store.Summarize(ctx, a.TimePeriod)
	if err != nil {
		log.Printf("tools: summarize_spending query failed: %v", err)
		return "{}"
	}
	if !a.ReturnBudgetStatus {
		b, _ := json.Marshal(totals)
		return string(b)
	}
	limits := a.BudgetLimits
	if limits == nil {
		limits = defaultBudgets
	}
	b, _ := json.Marshal(ClassifyBudget(totals, limits))
	return string(b)
}

func (t *Toolbox) detectUnusualSpending(ctx context.Context, args string) string {
	var a struct {
		Threshold     float64 `json:"threshold"`
		TimePeriod    string  `json:"time_period"`
		SpecificMonth string  `json:"specific_month"`
	}
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		log.Printf("tools: detect_unusual_spending bad arguments: %v", err)
		return "[]"
	}
	period := a.TimePeriod
	if a.SpecificMonth != "" {
		period = a.SpecificMonth
	}
	txns, err := t.store.Anomalies(ctx, a.Threshold, period)
	if err != nil {
		log.Printf("tools: detect_unusual_spending query failed: %v", err)
		return "[]"
	}
	return marshalList(txns)
}

// BudgetStatus classifies one category's spend against its limit. Categories
// without a configured limit are never over budget.
type BudgetStatus struct {
	Spent  float64  `json:"spent"`
	Budget *float64 `json:"budget,omitempty"`
	Status string   `json:"status"`
}

// ClassifyBudget marks a category over budget only when its spend strictly
// exceeds the configured limit.
func ClassifyBudget(totals, limits map[string]float64) map[string]BudgetStatus {
	out := make(map[string]BudgetStatus, len(totals))
	for category, spent := range totals {
		status := BudgetStatus{Spent: spent, Status: "within budget"}
		if limit, ok := limits[category]; ok {
			l := limit
			status.Budget = &l
			if spent > limit {
				status.Status = "over budget"
			}
		}
		out[category] = status
	}
	return out
}

func marshalList(txns []transactions.Transaction) string {
	if len(txns) == 0 {
		return "[]"
	}
	b, err := json.Marshal(txns)
	if err != nil {
		log.Printf("tools: marshal result: %v", err)
		return "[]"
	}
	return string(b)
}
