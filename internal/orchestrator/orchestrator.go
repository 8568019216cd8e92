// Package orchestrator implements the AgentOrchestrator capability: a
// bounded iterative conversation between Model and ToolRegistry that ends
// in a final text answer or a fatal failure.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/driveagent/driveagent/internal/apperr"
	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
	"github.com/rs/zerolog/log"
)

// DefaultMaxIterations bounds the model↔tool loop when the caller does not
// specify one.
const DefaultMaxIterations = 5

// MaxAllowedIterations is the upper bound spec §6 places on a caller-supplied
// maxIterations; requests above it are rejected rather than silently capped.
const MaxAllowedIterations = 10

// toolCallTimeout bounds each individual tool invocation.
const toolCallTimeout = 30 * time.Second

const systemInstruction = "you have access to tools; use them; respond in the user's language"

// Orchestrator runs the agentic tool-use loop over a Model and ToolRegistry.
type Orchestrator struct {
	model    contracts.Model
	registry contracts.ToolRegistry
}

// New constructs an Orchestrator.
func New(model contracts.Model, registry contracts.ToolRegistry) *Orchestrator {
	return &Orchestrator{model: model, registry: registry}
}

var _ contracts.AgentOrchestrator = (*Orchestrator)(nil)

// ExecuteTask drives the conversation to a final answer or a fatal failure.
func (o *Orchestrator) ExecuteTask(ctx context.Context, userPrompt string, maxIterations int) (*models.AgentTaskResult, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return nil, apperr.New(apperr.BadRequest, "userPrompt must not be empty")
	}
	if maxIterations == 0 {
		maxIterations = DefaultMaxIterations
	} else if maxIterations < 0 || maxIterations > MaxAllowedIterations {
		return nil, apperr.New(apperr.BadRequest, fmt.Sprintf("maxIterations must be between 1 and %d", MaxAllowedIterations))
	}

	turns := []models.ConversationTurn{
		{Kind: models.TurnSystemInstruction, Text: systemInstruction},
		{Kind: models.TurnUserText, Text: userPrompt},
	}
	declarations := o.registry.Declarations()
	var recorded []models.ToolCall
	var results []toolOutcome

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(apperr.Cancelled, "task cancelled", err)
		}

		resp, err := o.model.ChatWithTools(ctx, toChatMessages(turns), declarations, models.ChatOptions{
			ForceToolUse: iteration == 1,
		})
		if err != nil {
			return nil, apperr.Wrap(apperr.ModelFailure, fmt.Sprintf("model call failed on iteration %d", iteration), err)
		}

		switch {
		case len(resp.ToolCalls) > 0:
			turns = o.runToolCalls(ctx, turns, resp.ToolCalls, &recorded, &results)

		case resp.Text != "":
			if iteration == 1 {
				return nil, apperr.New(apperr.ModelFailure, "model returned text without a tool call on the forced first iteration")
			}
			return &models.AgentTaskResult{
				Success:    true,
				Answer:     synthesizeAnswer(resp.Text, results),
				ToolCalls:  recorded,
				Iterations: iteration,
			}, nil

		default:
			return nil, apperr.New(apperr.ModelFailure, "model returned neither tool calls nor text")
		}
	}

	return nil, apperr.New(apperr.MaxIterationsExceeded, "task too complex; maximum tool usage reached")
}

// toolOutcome pairs an executed tool's name with its result payload, kept
// separately from the public []models.ToolCall record so answer synthesis
// can inspect what each call actually returned.
type toolOutcome struct {
	name    string
	payload map[string]interface{}
}

// runToolCalls filters unknown tool names, executes the rest sequentially in
// the order the model emitted them, and appends a tool-result turn for each.
// A successful result carries a convergence directive; a failed one carries
// only {"error": message}.
func (o *Orchestrator) runToolCalls(ctx context.Context, turns []models.ConversationTurn, calls []models.ToolCall, recorded *[]models.ToolCall, results *[]toolOutcome) []models.ConversationTurn {
	turns = append(turns, models.ConversationTurn{Kind: models.TurnModelToolCall, ToolCalls: calls})

	for _, call := range calls {
		callCtx, cancel := context.WithTimeout(ctx, toolCallTimeout)
		payload, ok, err := o.registry.Invoke(callCtx, call.Name, call.Parameters)
		cancel()
		if !ok {
			log.Warn().Str("tool", call.Name).Msg("model requested unregistered tool, skipping")
			continue
		}

		var resultPayload map[string]interface{}
		if err != nil {
			resultPayload = map[string]interface{}{"error": err.Error()}
		} else {
			resultPayload = payload
			resultPayload["directive"] = directiveFor(call.Name, payload)
		}

		*recorded = append(*recorded, models.ToolCall{Name: call.Name, Parameters: call.Parameters})
		*results = append(*results, toolOutcome{name: call.Name, payload: resultPayload})
		turns = append(turns, models.ConversationTurn{
			Kind:        models.TurnToolResult,
			ToolName:    call.Name,
			ToolPayload: resultPayload,
		})
	}

	return turns
}

// directiveFor builds the short instruction appended to a tool-result
// payload that tells the model what to do next. Suppressing redundant
// repeat calls is the whole point: without it the model tends to re-search
// or re-summarize the same document on the next iteration.
func directiveFor(name string, payload map[string]interface{}) string {
	switch name {
	case "searchDocuments":
		if count, _ := payload["count"].(int); count > 0 {
			return "documents found: present them in the user's language; do not call tools again"
		}
		return "no results: tell the user; do not call tools again"
	case "summarizeDocument":
		if success, _ := payload["success"].(bool); success {
			return "document summarized: present the summary in the user's language; do not call tools again"
		}
		return "document not found: tell the user; do not call tools again"
	case "sendEmail":
		if success, _ := payload["success"].(bool); success {
			return "email sent: confirm in the user's language; do not call tools again"
		}
		return "email failed: tell the user; do not call tools again"
	case "getDocumentStats":
		return "stats retrieved: present them in the user's language; do not call tools again"
	default:
		return "tool executed: do not call tools again unless necessary"
	}
}

// synthesizeAnswer builds the final user-facing answer by inspecting the
// tool outcomes, in priority order: search results, then summaries, then
// sent emails, else the model's text verbatim.
func synthesizeAnswer(text string, results []toolOutcome) string {
	for _, r := range results {
		if r.name != "searchDocuments" {
			continue
		}
		if rows, ok := r.payload["results"].([]map[string]interface{}); ok && len(rows) > 0 {
			return text + "\n\n" + enumerateSearchResults(rows)
		}
	}
	for _, r := range results {
		if r.name != "summarizeDocument" {
			continue
		}
		if success, _ := r.payload["success"].(bool); success {
			return text + "\n\n" + describeSummary(r.payload)
		}
	}
	for _, r := range results {
		if r.name != "sendEmail" {
			continue
		}
		if success, _ := r.payload["success"].(bool); success {
			if sent, ok := r.payload["sentEmail"].(map[string]interface{}); ok {
				return text + "\n\n" + describeSentEmail(sent)
			}
		}
	}
	return text
}

func enumerateSearchResults(rows []map[string]interface{}) string {
	var b strings.Builder
	for _, row := range rows {
		name, _ := row["fileName"].(string)
		folder, _ := row["folderPath"].(string)
		link, _ := row["googleLink"].(string)
		fmt.Fprintf(&b, "- %s / %s: [Open](%s)\n", folder, name, link)
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeSummary(payload map[string]interface{}) string {
	name, _ := payload["documentName"].(string)
	extension, _ := payload["extension"].(string)
	folder, _ := payload["folderPath"].(string)
	link, _ := payload["googleLink"].(string)
	return fmt.Sprintf("%s%s (%s): [Open](%s)", name, extension, folder, link)
}

func describeSentEmail(sent map[string]interface{}) string {
	to, _ := sent["to"].(string)
	subject, _ := sent["subject"].(string)
	message, _ := sent["message"].(string)
	return fmt.Sprintf("To: %s\nSubject: %s\n%s", to, subject, message)
}

func toChatMessages(turns []models.ConversationTurn) []models.ChatMessage {
	messages := make([]models.ChatMessage, 0, len(turns))
	for _, t := range turns {
		switch t.Kind {
		case models.TurnSystemInstruction:
			messages = append(messages, models.ChatMessage{Role: "system", Content: t.Text})
		case models.TurnUserText:
			messages = append(messages, models.ChatMessage{Role: "user", Content: t.Text})
		case models.TurnModelText:
			messages = append(messages, models.ChatMessage{Role: "assistant", Content: t.Text})
		case models.TurnModelToolCall:
			messages = append(messages, models.ChatMessage{Role: "assistant", Content: formatToolCalls(t.ToolCalls)})
		case models.TurnToolResult:
			messages = append(messages, models.ChatMessage{Role: "tool", Content: formatToolResult(t.ToolName, t.ToolPayload)})
		}
	}
	return messages
}

func formatToolCalls(calls []models.ToolCall) string {
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return "[called: " + strings.Join(names, ", ") + "]"
}

func formatToolResult(name string, payload map[string]interface{}) string {
	return fmt.Sprintf("[%s result] %v", name, payload)
}
