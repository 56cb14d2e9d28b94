package advisor

import (
	"context"
	"fmt"

	"entrywatch/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// Service turns one asset's analysis snapshot into a short narrative
// read. Stateless: every call stands on its own.
type Service struct {
	tracer trace.Tracer
	llm    LLMClient
	model  string
}

func NewService(tracer trace.Tracer, llm LLMClient, model string) *Service {
	return &Service{tracer: tracer, llm: llm, model: model}
}

func (s *Service) Advise(ctx context.Context, asset domain.TrackedAsset) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor.advise")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", asset.Symbol))

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(BuildSystemPrompt()),
		openai.UserMessage(FormatAssetContext(asset)),
	}

	completion, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("advisor unavailable: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}

	reply := completion.Choices[0].Message.Content
	span.SetAttributes(attribute.Int("llm.reply_length", len(reply)))
	return reply, nil
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
