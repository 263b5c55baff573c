package spam

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIModeration flags candidates whose profile text trips the OpenAI
// moderation endpoint.
type OpenAIModeration struct {
	client *openai.Client
}

func NewOpenAIModeration(apiKey string) *OpenAIModeration {
	return &OpenAIModeration{
		client: openai.NewClient(apiKey),
	}
}

// NewOpenAIModerationWithConfig allows a custom base URL or HTTP client.
func NewOpenAIModerationWithConfig(cfg openai.ClientConfig) *OpenAIModeration {
	return &OpenAIModeration{
		client: openai.NewClientWithConfig(cfg),
	}
}

func (m *OpenAIModeration) IsSpam(ctx context.Context, c Candidate) (bool, error) {
	if m.client == nil {
		return false, fmt.Errorf("%w: OpenAI client not initialized", ErrUnavailable)
	}

	input := strings.TrimSpace(strings.Join([]string{c.Login, c.Email, c.Content}, "\n"))
	if input == "" {
		return false, nil
	}

	resp, err := m.client.Moderations(ctx, openai.ModerationRequest{Input: input})
	if err != nil {
		return false, fmt.Errorf("%w: OpenAI API error: %v", ErrUnavailable, err)
	}
	if len(resp.Results) == 0 {
		return false, fmt.Errorf("%w: no response from OpenAI", ErrUnavailable)
	}

	for _, result := range resp.Results {
		if result.Flagged {
			return true, nil
		}
	}
	return false, nil
}
