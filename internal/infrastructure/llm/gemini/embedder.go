package gemini

import (
	"context"
	"fmt"

	"github.com/kirillkom/rag-chat/internal/core/domain"
)

type embedContentRequest struct {
	Content content `json:"content"`
}

type embedContentResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

// Embed calls embedContent, retrying throttling, server errors and timeouts
// on the embedding schedule.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	const op = "gemini.embed"
	if e.client.apiKey == "" {
		return nil, domain.NewError(domain.ErrConfig, op, "LLM_API_KEY is not set")
	}

	request := embedContentRequest{
		Content: content{Parts: []part{{Text: text}}},
	}

	var values []float32
	err := e.client.embedExec.Execute(ctx, op, func(callCtx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(callCtx, e.client.embedTimeout)
		defer cancel()

		var response embedContentResponse
		if err := e.client.postJSON(attemptCtx, e.client.modelPath(e.client.embedModel, "embedContent"), request, &response, "embed"); err != nil {
			return err
		}
		values = response.Embedding.Values
		return nil
	}, classifyGeminiError)
	if err != nil {
		return nil, wrapUpstream(op, err)
	}
	if len(values) == 0 {
		return nil, domain.WrapError(domain.ErrUpstreamUnavailable, op, fmt.Errorf("response has no embedding values"))
	}
	return values, nil
}
