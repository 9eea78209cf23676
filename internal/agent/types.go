package agent

import (
	"context"

	"github.com/openai/openai-go/v3"
)

// Senders recognized when rebuilding model input from stored history. Records
// with any other sender are tolerated in storage but invisible to the model.
const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

// Exchange is one stored conversation record as the agent sees it.
type Exchange struct {
	Sender  string
	Content string
}

// UnitKind types a turn-input unit by the side that produced it.
type UnitKind int

const (
	UnitRequest UnitKind = iota
	UnitResponse
)

// TurnUnit is one unit of model input derived from a stored message.
type TurnUnit struct {
	Kind    UnitKind
	Content string
}

// Toolbox is the capability handle through which the agent invokes external
// tools without knowing their implementations. Invoke must never fail past
// this boundary: tool-level errors degrade to an empty result.
type Toolbox interface {
	Specs() []openai.ChatCompletionToolUnionParam
	Invoke(ctx context.Context, name, args string) string
}
