package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/divakaivan/voice2voice-banking-assistant/internal/transactions"
)

type fakeQueries struct {
	recent    []transactions.Transaction
	totals    map[string]float64
	anomalies []transactions.Transaction
	err       error

	lastFilter    transactions.RecentFilter
	lastPeriod    string
	lastThreshold float64
}

func (f *fakeQueries) Recent(_ context.Context, filter transactions.RecentFilter) ([]transactions.Transaction, error) {
	f.lastFilter = filter
	return f.recent, f.err
}

func (f *fakeQueries) Summarize(_ context.Context, period string) (map[string]float64, error) {
	f.lastPeriod = period
	return f.totals, f.err
}

func (f *fakeQueries) Anomalies(_ context.Context, threshold float64, period string) ([]transactions.Transaction, error) {
	f.lastThreshold = threshold
	f.lastPeriod = period
	return f.anomalies, f.err
}

func TestInvoke_RecentTransactionsPassesFilters(t *testing.T) {
	q := &fakeQueries{recent: []transactions.Transaction{{Amount: 12, Date: "2023-10-13", Merchant: "Amazon", Category: "Electronics"}}}
	tb := New(q)

	out := tb.Invoke(context.Background(), "get_recent_transactions",
		`{"category":"Electronics","merchant":"Amazon","limit":3}`)

	if q.lastFilter.Category != "Electronics" || q.lastFilter.Merchant != "Amazon" || q.lastFilter.Limit != 3 {
		t.Fatalf("filter not forwarded: %+v", q.lastFilter)
	}
	var got []transactions.Transaction
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("result not valid JSON: %v", err)
	}
	if len(got) != 1 || got[0].Merchant != "Amazon" {
		t.Fatalf("unexpected result: %s", out)
	}
}

func TestInvoke_QueryFailureDegradesToEmptyResult(t *testing.T) {
	q := &fakeQueries{err: errors.New("db gone")}
	tb := New(q)

	if out := tb.Invoke(context.Background(), "get_recent_transactions", `{}`); out != "[]" {
		t.Fatalf("expected empty list on failure, got %s", out)
	}
	if out := tb.Invoke(context.Background(), "summarize_spending", `{}`); out != "{}" {
		t.Fatalf("expected empty object on failure, got %s", out)
	}
	if out := tb.Invoke(context.Background(), "detect_unusual_spending", `{}`); out != "[]" {
		t.Fatalf("expected empty list on failure, got %s", out)
	}
}

func TestInvoke_BadArgumentsDegradeToEmptyResult(t *testing.T) {
	tb := New(&fakeQueries{})
	if out := tb.Invoke(context.Background(), "get_recent_transactions", `not json`); out != "[]" {
		t.Fatalf("expected empty list on bad args, got %s", out)
	}
}

func TestInvoke_UnknownCapability(t *testing.T) {
	tb := New(&fakeQueries{})
	if out := tb.Invoke(context.Background(), "transfer_funds", `{}`); out != "[]" {
		t.Fatalf("expected empty list for unknown capability, got %s", out)
	}
}

func TestInvoke_SpecificMonthOverridesPeriod(t *testing.T) {
	q := &fakeQueries{}
	tb := New(q)
	tb.Invoke(context.Background(), "detect_unusual_spending",
		`{"time_period":"last month","specific_month":"2023-08","threshold":50}`)
	if q.lastPeriod != "2023-08" {
		t.Fatalf("expected explicit month to win, got %q", q.lastPeriod)
	}
	if q.lastThreshold != 50 {
		t.Fatalf("expected threshold forwarded, got %v", q.lastThreshold)
	}
}

func TestClassifyBudget(t *testing.T) {
	totals := map[string]float64{
		"Travel":      120000,
		"Restaurant":  200000,
		"Mysterious":  999999,
		"Electronics": 1000,
	}
	limits := map[string]float64{
		"Travel":      100000,
		"Restaurant":  200000,
		"Electronics": 150000,
	}

	got := ClassifyBudget(totals, limits)

	if got["Travel"].Status != "over budget" {
		t.Fatalf("Travel should be over budget: %+v", got["Travel"])
	}
	// equal spend is not strictly greater, so still within budget
	if got["Restaurant"].Status != "within budget" {
		t.Fatalf("Restaurant at exactly its limit should be within budget: %+v", got["Restaurant"])
	}
	if got["Electronics"].Status != "within budget" {
		t.Fatalf("Electronics should be within budget: %+v", got["Electronics"])
	}
	// no configured limit means never over budget
	if got["Mysterious"].Status != "within budget" || got["Mysterious"].Budget != nil {
		t.Fatalf("category without a limit must never be over budget: %+v", got["Mysterious"])
	}
}

func TestInvoke_SummaryWithDefaultBudgets(t *testing.T) {
	q := &fakeQueries{totals: map[string]float64{"Travel": 150000}}
	tb := New(q)

	out := tb.Invoke(context.Background(), "summarize_spending",
		`{"time_period":"this week","return_budget_status":true}`)

	var got map[string]BudgetStatus
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("result not valid JSON: %v", err)
	}
	if got["Travel"].Status != "over budget" {
		t.Fatalf("expected default Travel budget of 100000 to flag 150000 spend: %s", out)
	}
}
