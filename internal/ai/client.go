package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dailyreport/internal/config"

	"github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion is returned when the provider answers without text.
var ErrEmptyCompletion = errors.New("ai provider returned no content")

// Reference is a text file the author marked as background for the rewrite.
type Reference struct {
	Name string
	Text string
}

// Request is one project aggregate to polish.
type Request struct {
	ProjectName string
	Content     string
	References  []Reference
}

// Enhancer rewrites a project's daily work text.
type Enhancer interface {
	Enhance(ctx context.Context, req Request) (string, error)
}

type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewClient builds an Azure OpenAI or plain OpenAI client from cfg.
func NewClient(cfg config.AIConfig) *Client {
	var clientCfg openai.ClientConfig
	if cfg.Provider == "azure" {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
		deployment := cfg.Deployment
		clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.Endpoint != "" {
			clientCfg.BaseURL = cfg.Endpoint
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Deployment,
		timeout: timeout,
	}
}

const systemPrompt = "You polish employees' daily work reports. Rewrite the notes into clear, " +
	"well organised prose in the same language as the notes. Keep every fact, number and name. " +
	"Do not invent work that is not in the notes. Answer with the rewritten report only."

// maxReferenceChars bounds how much of each reference file goes into the prompt.
const maxReferenceChars = 4000

// BuildPrompt renders the user message for req.
func BuildPrompt(req Request) string {
	var b strings.Builder
	if req.ProjectName != "" {
		fmt.Fprintf(&b, "Project: %s\n\n", req.ProjectName)
	}
	b.WriteString("Work notes:\n")
	b.WriteString(strings.TrimSpace(req.Content))
	b.WriteString("\n")
	for _, ref := range req.References {
		text := strings.TrimSpace(ref.Text)
		if text == "" {
			continue
		}
		if r := []rune(text); len(r) > maxReferenceChars {
			text = string(r[:maxReferenceChars])
		}
		fmt.Fprintf(&b, "\nReference file %s:\n%s\n", ref.Name, text)
	}
	return b.String()
}

func (c *Client) Enhance(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("ai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
