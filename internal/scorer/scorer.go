// Package scorer drives the language model through a bounded tool-calling
// loop and enforces the scoring output contracts.
package scorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/writetoearn/scorer/internal/tools"
)

// loopState tracks the orchestration state machine.
type loopState int

const (
	stateAwaitingModel loopState = iota
	stateInvokingTool
	stateDone
	stateBudgetExhausted
)

func (s loopState) String() string {
	switch s {
	case stateAwaitingModel:
		return "awaiting_model"
	case stateInvokingTool:
		return "invoking_tool"
	case stateDone:
		return "done"
	case stateBudgetExhausted:
		return "budget_exhausted"
	}
	return "unknown"
}

// ModelClient is the single completion call the loop needs per step.
// Satisfied by the Anthropic SDK; faked in tests.
type ModelClient interface {
	CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// anthropicModel adapts the SDK client to ModelClient.
type anthropicModel struct {
	client *anthropic.Client
}

func (m *anthropicModel) CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	return m.client.Messages.New(ctx, params)
}

// NewModelClient builds the real Anthropic-backed model client.
func NewModelClient(apiKey string) ModelClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicModel{client: &client}
}

// ExchangeLog records each orchestration run for diagnosis; contract
// violations carry the raw offending text.
type ExchangeLog interface {
	RecordExchange(ctx context.Context, requestID string, kind string, model string, prompt string, response string, runErr error)
}

// Options tune the orchestration loop.
type Options struct {
	Model       string
	MaxSteps    int
	StepTimeout time.Duration
	PromptDir   string
}

// Scorer runs scoring orchestrations against one model with one tool set.
type Scorer struct {
	model    ModelClient
	registry *tools.Registry
	opts     Options
	log      *slog.Logger
	exchange ExchangeLog
}

// New creates a Scorer. exchange may be nil to disable audit logging.
func New(model ModelClient, registry *tools.Registry, opts Options, exchange ExchangeLog, log *slog.Logger) *Scorer {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 10
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 60 * time.Second
	}
	return &Scorer{
		model:    model,
		registry: registry,
		opts:     opts,
		log:      log.With("component", "scorer"),
		exchange: exchange,
	}
}

// Score runs one kind of scoring for the content locator. The model decides
// whether to call tools before answering; the final answer must satisfy the
// kind's JSON contract exactly.
func (s *Scorer) Score(ctx context.Context, requestID string, kind Kind, contentURL string, meta CampaignMeta) (*Result, error) {
	prompt := taskPrompt(kind, contentURL, meta)

	finalText, err := s.runLoop(ctx, kind, prompt)
	if err != nil {
		s.record(ctx, requestID, kind, prompt, finalText, err)
		return nil, err
	}

	result, err := parseResult(kind, finalText)
	if err != nil {
		s.log.Error("score output rejected", "kind", kind, "error", err, "raw", finalText)
		s.record(ctx, requestID, kind, prompt, finalText, err)
		return nil, err
	}

	s.record(ctx, requestID, kind, prompt, finalText, nil)
	return result, nil
}

// runLoop executes the bounded reasoning loop and returns the model's final
// textual answer.
func (s *Scorer) runLoop(ctx context.Context, kind Kind, prompt string) (string, error) {
	toolParams := s.toolParams()
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
	}

	state := stateAwaitingModel
	for step := 0; step < s.opts.MaxSteps && state != stateDone; step++ {
		message, err := s.step(ctx, kind, toolParams, messages)
		if err != nil {
			return "", fmt.Errorf("model step %d failed: %w", step+1, err)
		}

		if message.StopReason == "tool_use" {
			s.transition(kind, step, &state, stateInvokingTool)
			messages = append(messages, message.ToParam())

			results, err := s.invokeTools(ctx, message)
			if err != nil {
				return "", err
			}
			messages = append(messages, anthropic.NewUserMessage(results...))

			s.transition(kind, step, &state, stateAwaitingModel)
			continue
		}

		for _, block := range message.Content {
			if block.Type == "text" && block.Text != "" {
				s.transition(kind, step, &state, stateDone)
				return block.Text, nil
			}
		}
		return "", fmt.Errorf("model returned no text content")
	}

	s.transition(kind, s.opts.MaxSteps, &state, stateBudgetExhausted)
	return "", fmt.Errorf("%w: budget %d", ErrBudgetExhausted, s.opts.MaxSteps)
}

func (s *Scorer) transition(kind Kind, step int, state *loopState, next loopState) {
	s.log.Debug("loop transition", "kind", string(kind), "step", step, "from", state.String(), "to", next.String())
	*state = next
}

// step performs one model call under the per-step timeout.
func (s *Scorer) step(ctx context.Context, kind Kind, toolParams []anthropic.ToolUnionParam, messages []anthropic.MessageParam) (*anthropic.Message, error) {
	stepCtx, cancel := context.WithTimeout(ctx, s.opts.StepTimeout)
	defer cancel()

	return s.model.CreateMessage(stepCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.opts.Model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt(kind, s.opts.PromptDir)},
		},
		Messages: messages,
		Tools:    toolParams,
	})
}

// invokeTools runs every tool_use block in the assistant turn and wraps the
// outcomes as tool results. Tool errors are fed back to the model rather than
// aborting the loop, except schema violations, which are fatal.
func (s *Scorer) invokeTools(ctx context.Context, message *anthropic.Message) ([]anthropic.ContentBlockParamUnion, error) {
	var results []anthropic.ContentBlockParamUnion

	for _, block := range message.Content {
		if block.Type != "tool_use" {
			continue
		}

		toolCtx, cancel := context.WithTimeout(ctx, s.opts.StepTimeout)
		output, err := s.registry.Invoke(toolCtx, block.Name, block.Input)
		cancel()

		if err != nil {
			if isFatalToolError(err) {
				return nil, err
			}
			s.log.Warn("tool call failed", "tool", block.Name, "error", err)
			failure := toolResultBlock(block.ID, err.Error())
			failure.OfToolResult.IsError = anthropic.Bool(true)
			results = append(results, failure)
			continue
		}

		results = append(results, toolResultBlock(block.ID, output))
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("stop reason was tool_use but no tool_use blocks present")
	}
	return results, nil
}

// toolResultBlock wraps a tool outcome as the text content of a tool_result
// block tied to the originating tool_use id.
func toolResultBlock(toolUseID, content string) anthropic.ContentBlockParamUnion {
	result := anthropic.NewToolResultBlock(toolUseID)
	result.OfToolResult.Content = []anthropic.ToolResultBlockParamContentUnion{
		{OfText: &anthropic.TextBlockParam{Text: content}},
	}
	return result
}

func isFatalToolError(err error) bool {
	return errors.Is(err, tools.ErrInvalidInput) || errors.Is(err, tools.ErrUnknownTool)
}

func (s *Scorer) toolParams() []anthropic.ToolUnionParam {
	var params []anthropic.ToolUnionParam
	for _, tool := range s.registry.List() {
		properties := make(map[string]any, len(tool.Schema.Properties))
		for name, prop := range tool.Schema.Properties {
			properties[name] = map[string]string{
				"type":        prop.Type,
				"description": prop.Description,
			}
		}

		schema := anthropic.ToolInputSchemaParam{Properties: properties}
		if len(tool.Schema.Required) > 0 {
			schema.SetExtraFields(map[string]any{"required": tool.Schema.Required})
		}

		params = append(params, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: schema,
			},
		})
	}
	return params
}

func (s *Scorer) record(ctx context.Context, requestID string, kind Kind, prompt, response string, runErr error) {
	if s.exchange == nil {
		return
	}
	s.exchange.RecordExchange(ctx, requestID, string(kind), s.opts.Model, prompt, response, runErr)
}
