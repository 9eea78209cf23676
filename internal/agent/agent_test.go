package agent

import (
	"reflect"
	"testing"
)

func TestBuildTurnInput_AlternatingUnitsSkipsUnknownSenders(t *testing.T) {
	history := []Exchange{
		{Sender: "user", Content: "Hi!"},
		{Sender: "agent", Content: "Hi, how can I help?"},
		{Sender: "user", Content: "Tell me a joke."},
		{Sender: "agent", Content: "Why did the chicken cross the road?"},
		{Sender: "system", Content: "This should be ignored."},
	}

	want := []TurnUnit{
		{Kind: UnitRequest, Content: "Hi!"},
		{Kind: UnitResponse, Content: "Hi, how can I help?"},
		{Kind: UnitRequest, Content: "Tell me a joke."},
		{Kind: UnitResponse, Content: "Why did the chicken cross the road?"},
	}

	got := BuildTurnInput(history)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reduction mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestBuildTurnInput_EmptyHistory(t *testing.T) {
	if got := BuildTurnInput(nil); len(got) != 0 {
		t.Fatalf("expected empty reduction, got %+v", got)
	}
}

func TestBuildTurnInput_Idempotent(t *testing.T) {
	history := []Exchange{
		{Sender: "user", Content: "Hello"},
		{Sender: "unknown", Content: "noise"},
		{Sender: "agent", Content: "Hi"},
	}
	first := BuildTurnInput(history)
	second := BuildTurnInput(history)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reduction not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 units after exclusion, got %d", len(first))
	}
}
