// Package modelsvc implements the Model capability against the OpenAI API.
package modelsvc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog/log"
)

// OpenAIModel implements contracts.Model against OpenAI's chat completions
// and embeddings endpoints.
type OpenAIModel struct {
	client     openai.Client
	chatModel  string
	embedModel string
}

// New constructs an OpenAIModel from an API key and the two model names the
// runtime uses for chat and embeddings.
func New(apiKey, chatModel, embedModel string) *OpenAIModel {
	return &OpenAIModel{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		chatModel:  chatModel,
		embedModel: embedModel,
	}
}

var _ contracts.Model = (*OpenAIModel)(nil)

// Chat issues a plain chat completion and returns the first choice's text.
func (m *OpenAIModel) Chat(ctx context.Context, turns []models.ChatMessage) (string, error) {
	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    m.chatModel,
		Messages: toOpenAIMessages(turns),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatWithTools issues a tool-augmented chat completion. When the model
// emits tool calls, ModelResponse.ToolCalls is populated and Text is empty;
// otherwise Text carries the final answer.
func (m *OpenAIModel) ChatWithTools(ctx context.Context, turns []models.ChatMessage, tools []models.ToolDeclaration, opts models.ChatOptions) (*models.ModelResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    m.chatModel,
		Messages: toOpenAIMessages(turns),
		Tools:    toOpenAITools(tools),
	}
	if opts.ForceToolUse && len(tools) > 0 {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String("required"),
		}
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat completion: no choices returned")
	}

	choice := resp.Choices[0].Message
	if len(choice.ToolCalls) > 0 {
		calls := make([]models.ToolCall, 0, len(choice.ToolCalls))
		for _, tc := range choice.ToolCalls {
			var params map[string]interface{}
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &params); err != nil {
				log.Warn().Err(err).Str("tool", tc.Function.Name).Msg("model emitted malformed tool arguments")
				params = map[string]interface{}{}
			}
			calls = append(calls, models.ToolCall{Name: tc.Function.Name, Parameters: params})
		}
		return &models.ModelResponse{ToolCalls: calls}, nil
	}

	return &models.ModelResponse{Text: choice.Content}, nil
}

// Embed generates a single embedding vector for text.
func (m *OpenAIModel) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := m.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: m.embedModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embedding: no data returned")
	}
	return resp.Data[0].Embedding, nil
}

func toOpenAIMessages(turns []models.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case "system":
			out = append(out, openai.SystemMessage(t.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(t.Content))
		case "tool":
			out = append(out, openai.ToolMessage(t.Content, ""))
		default:
			out = append(out, openai.UserMessage(t.Content))
		}
	}
	return out
}

func toOpenAITools(decls []models.ToolDeclaration) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(decls))
	for _, d := range decls {
		properties := make(map[string]interface{}, len(d.Parameters.Properties))
		for name, prop := range d.Parameters.Properties {
			entry := map[string]interface{}{"type": prop.Type}
			if prop.Description != "" {
				entry["description"] = prop.Description
			}
			if prop.Default != nil {
				entry["default"] = prop.Default
			}
			properties[name] = entry
		}
		schema := map[string]interface{}{
			"type":       "object",
			"properties": properties,
		}
		if len(d.Parameters.Required) > 0 {
			schema["required"] = d.Parameters.Required
		}
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        d.Name,
			Description: openai.String(d.Description),
			Parameters:  schema,
		}))
	}
	return out
}
