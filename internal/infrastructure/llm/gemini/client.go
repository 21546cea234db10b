// Package gemini talks to the Generative Language REST API for embeddings
// and single-turn text generation.
package gemini

import (
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/rag-chat/internal/infrastructure/resilience"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// UsageObserver receives the token counts reported for each generation.
type UsageObserver func(model string, promptTokens, completionTokens int)

type Options struct {
	BaseURL    string
	APIKey     string
	EmbedModel string
	ChatModel  string

	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration

	EmbedExecutor    *resilience.Executor
	GenerateExecutor *resilience.Executor
	HTTPClient       *http.Client
	OnUsage          UsageObserver
}

type Client struct {
	baseURL    string
	apiKey     string
	embedModel string
	chatModel  string

	embedTimeout    time.Duration
	generateTimeout time.Duration

	embedExec  *resilience.Executor
	genExec    *resilience.Executor
	httpClient *http.Client
	onUsage    UsageObserver
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	embedTimeout := opts.EmbedTimeout
	if embedTimeout <= 0 {
		embedTimeout = 30 * time.Second
	}
	generateTimeout := opts.GenerateTimeout
	if generateTimeout <= 0 {
		generateTimeout = 60 * time.Second
	}
	embedExec := opts.EmbedExecutor
	if embedExec == nil {
		embedExec = resilience.NewExecutor(resilience.EmbeddingConfig())
	}
	genExec := opts.GenerateExecutor
	if genExec == nil {
		genExec = resilience.NewExecutor(resilience.SingleAttemptConfig())
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:         baseURL,
		apiKey:          strings.TrimSpace(opts.APIKey),
		embedModel:      opts.EmbedModel,
		chatModel:       opts.ChatModel,
		embedTimeout:    embedTimeout,
		generateTimeout: generateTimeout,
		embedExec:       embedExec,
		genExec:         genExec,
		httpClient:      httpClient,
		onUsage:         opts.OnUsage,
	}
}

func (c *Client) modelPath(model, method string) string {
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	return "/v1beta/models/" + model + ":" + method
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}
