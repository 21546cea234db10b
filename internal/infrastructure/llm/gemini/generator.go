package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/rag-chat/internal/core/domain"
)

type generateContentRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

// Generate sends one user turn and returns the first candidate's first text
// part. It never retries.
func (g *Generator) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	const op = "gemini.generate"
	if g.client.apiKey == "" {
		return "", domain.NewError(domain.ErrConfig, op, "LLM_API_KEY is not set")
	}

	request := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if strings.TrimSpace(systemInstruction) != "" {
		request.SystemInstruction = &content{Parts: []part{{Text: systemInstruction}}}
	}

	var response generateContentResponse
	err := g.client.genExec.Execute(ctx, op, func(callCtx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(callCtx, g.client.generateTimeout)
		defer cancel()
		return g.client.postJSON(attemptCtx, g.client.modelPath(g.client.chatModel, "generateContent"), request, &response, "generate")
	}, classifyGeminiError)
	if err != nil {
		return "", wrapUpstream(op, err)
	}

	if g.client.onUsage != nil {
		g.client.onUsage(g.client.chatModel, response.UsageMetadata.PromptTokenCount, response.UsageMetadata.CandidatesTokenCount)
	}

	text, ok := firstText(response)
	if !ok {
		return "", domain.NewError(domain.ErrEmptyCompletion, op, fmt.Sprintf("no text in response (candidates=%d)", len(response.Candidates)))
	}
	return text, nil
}

func firstText(response generateContentResponse) (string, bool) {
	if len(response.Candidates) == 0 {
		return "", false
	}
	parts := response.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == "" {
		return "", false
	}
	return parts[0].Text, true
}
