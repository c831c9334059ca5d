package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// VertexGemini is a Model backed by Gemini on Vertex AI.
type VertexGemini struct {
	client  *vertexgenai.Client
	model   *vertexgenai.GenerativeModel
	timeout time.Duration
}

// VertexConfig selects the project, region and model. CredentialsFile and
// APIKey are optional; without them Application Default Credentials apply.
type VertexConfig struct {
	ProjectID       string
	Location        string
	Model           string
	CredentialsFile string
	APIKey          string
	Timeout         time.Duration
}

func NewVertexGemini(ctx context.Context, cfg VertexConfig) (*VertexGemini, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	c, err := vertexgenai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: creating vertex client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	m := c.GenerativeModel(modelName)
	m.SetTemperature(0.2)

	return &VertexGemini{client: c, model: m, timeout: cfg.Timeout}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// Generate sends prompt and concatenates the text parts of every candidate.
func (v *VertexGemini) Generate(ctx context.Context, prompt string) (string, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	resp, err := v.model.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("llm: generating content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", errors.New("llm: model returned no text")
	}
	return text, nil
}

func responseText(resp *vertexgenai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}
