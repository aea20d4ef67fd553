package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
)

// AssistClient implements port.AssistClient using OpenAI chat completions
type AssistClient struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewAssistClient creates a new OpenAI assist client
func NewAssistClient(apiKey, model string, temperature float32, logger *zap.Logger) *AssistClient {
	return &AssistClient{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

type assistResponse struct {
	Summary        string  `json:"summary"`
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
}

// Summarize asks the model to read the troubleshooting session and suggest
// what an agent should look at first
func (a *AssistClient) Summarize(ctx context.Context, rma *entity.RmaRequest, ts *entity.TroubleshootingData, pb *entity.Playbook) (*port.AssistSuggestion, error) {
	a.logger.Debug("Requesting assist summary",
		zap.String("rma_id", rma.RmaID),
		zap.String("sku_group", rma.SKUGroupName))

	prompt := buildAssistPrompt(rma, ts, pb)

	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a hardware support specialist reviewing a customer's troubleshooting session for a product return. Summarize what was tried, assess whether the failure looks like a hardware defect, and recommend the next action for the support agent. Always respond with valid JSON with keys summary, recommendation, and confidence (0 to 1).",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		a.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content

	var parsed assistResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		// Fallback: try to extract JSON from markdown code blocks
		if jsonStr := extractJSON(content); jsonStr != "" {
			if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
				return nil, fmt.Errorf("failed to parse response: %w", err)
			}
		} else {
			a.logger.Error("Failed to parse OpenAI response",
				zap.Error(err),
				zap.String("content", content))
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	a.logger.Info("Assist summary completed",
		zap.String("rma_id", rma.RmaID),
		zap.Float64("confidence", parsed.Confidence))

	return &port.AssistSuggestion{
		Summary:        parsed.Summary,
		Recommendation: parsed.Recommendation,
		Confidence:     parsed.Confidence,
	}, nil
}

func buildAssistPrompt(rma *entity.RmaRequest, ts *entity.TroubleshootingData, pb *entity.Playbook) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Product SKU: %s (group %s)\n", rma.SKU, rma.SKUGroupName)
	fmt.Fprintf(&b, "Warranty eligible: %v\n", rma.WarrantyEligible)

	if ts != nil {
		if len(ts.Symptoms) > 0 {
			fmt.Fprintf(&b, "Reported symptoms: %s\n", string(ts.Symptoms))
		}
		if ts.OptedOut {
			b.WriteString("The customer opted out of guided troubleshooting early.\n")
		}
		if len(ts.CompletedSteps) > 0 {
			b.WriteString("Completed steps:\n")
			for _, step := range ts.CompletedSteps {
				title := step.StepID
				if pb != nil {
					if def := pb.Step(step.StepID); def != nil {
						title = def.Title
					}
				}
				fmt.Fprintf(&b, "- %s: answered %q (%d evidence files)\n", title, step.Answer, len(step.EvidenceIDs))
			}
		}
	}

	if pb != nil {
		fmt.Fprintf(&b, "The playbook for this product group has %d steps.\n", len(pb.Steps))
	}

	return b.String()
}

// extractJSON pulls the first ```json fenced block out of a markdown reply
func extractJSON(content string) string {
	start := strings.Index(content, "```json")
	if start == -1 {
		start = strings.Index(content, "```")
		if start == -1 {
			return ""
		}
		start += 3
	} else {
		start += 7
	}

	end := strings.Index(content[start:], "```")
	if end == -1 {
		return ""
	}

	return strings.TrimSpace(content[start : start+end])
}

// Verify interface compliance
var _ port.AssistClient = (*AssistClient)(nil)
