package agent

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
)

const systemPrompt = `You are a helpful and polite bank assistant, dedicated to providing concise and clear information about the user's bank transactions.
You will interact with the user in a friendly and professional manner.
When the user inquires about their transactions, summarize the details clearly and briefly, highlighting key information like amounts, dates, and merchants.
If you're given a date (e.g., 2023-01-01), format it in a human-friendly way, like '1st of January 2023', to make it easier to read aloud.
You can also offer insights like budgeting information, recent spending patterns, and help with transaction analysis.
Use your tools to answer questions about recent transactions, spending summaries, and unusual spending.
If the user just says 'Hello', 'Hi', 'Thank you', or 'Bye', respond with a friendly greeting and say 'I am here to help you with your banking.'
Your replies are spoken aloud, so keep them short and avoid markdown or lists.`

// maxToolRounds bounds how many times one generation may loop back through
// tool resolution before giving up.
const maxToolRounds = 8

// BuildTurnInput reduces stored history into alternating request/response
// units, one per message, in order. Senders other than user/agent are
// excluded. The reduction is pure: calling it again on the same history
// yields the same units.
func BuildTurnInput(history []Exchange) []TurnUnit {
	var units []TurnUnit
	for _, e := range history {
		switch e.Sender {
		case SenderUser:
			units = append(units, TurnUnit{Kind: UnitRequest, Content: e.Content})
		case SenderAgent:
			units = append(units, TurnUnit{Kind: UnitResponse, Content: e.Content})
		}
	}
	return units
}

// Agent wraps a chat-completions model plus the transaction toolbox.
type Agent struct {
	client  openai.Client
	model   string
	toolbox Toolbox
}

func New(client openai.Client, model string, toolbox Toolbox) *Agent {
	return &Agent{client: client, model: model, toolbox: toolbox}
}

// Generate streams the model's reply for the prompt given the prior turn
// units. The returned fragment channel carries incremental text in emission
// order; their concatenation is the full reply. Tool calls are resolved
// internally and block further output until they return. The call is
// one-shot: both channels are closed when generation ends.
func (a *Agent) Generate(ctx context.Context, prompt string, units []TurnUnit) (<-chan string, <-chan error) {
	// one fragment in flight; the consumer paces generation
	fragCh := make(chan string, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(fragCh)
		defer close(errCh)

		messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(units)+2)
		messages = append(messages, openai.SystemMessage(systemPrompt))
		for _, u := range units {
			switch u.Kind {
			case UnitRequest:
				messages = append(messages, openai.UserMessage(u.Content))
			case UnitResponse:
				messages = append(messages, openai.AssistantMessage(u.Content))
			}
		}
		messages = append(messages, openai.UserMessage(prompt))

		params := openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(a.model),
			Messages: messages,
			Tools:    a.toolbox.Specs(),
		}

		for round := 0; round < maxToolRounds; round++ {
			done, err := a.streamRound(ctx, &params, fragCh)
			if err != nil {
				errCh <- err
				return
			}
			if done {
				return
			}
		}
		errCh <- fmt.Errorf("generation exceeded %d tool rounds", maxToolRounds)
	}()

	return fragCh, errCh
}

// streamRound runs one streamed completion, forwarding text deltas as they
// arrive. When the model stops to call tools, it resolves them, appends the
// results to params, and reports done=false so the caller loops.
func (a *Agent) streamRound(ctx context.Context, params *openai.ChatCompletionNewParams, fragCh chan<- string) (done bool, err error) {
	stream := a.client.Chat.Completions.NewStreaming(ctx, *params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			select {
			case fragCh <- delta:
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}
	}
	if err := stream.Err(); err != nil {
		return false, fmt.Errorf("chat completion stream: %w", err)
	}
	if len(acc.Choices) == 0 {
		return true, nil
	}

	calls := acc.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return true, nil
	}
	params.Messages = append(params.Messages, acc.Choices[0].Message.ToParam())
	for _, call := range calls {
		result := a.toolbox.Invoke(ctx, call.Function.Name, call.Function.Arguments)
		params.Messages = append(params.Messages, openai.ToolMessage(result, call.ID))
	}
	return false, nil
}
