package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const commentaryPrompt = `You are a financial analyst commenting on an equity performance dashboard for Brazilian (B3) stocks.
You receive, for each asset, an equal-weight portfolio of them and a benchmark index: total return, annualized volatility, Sharpe ratio (total return / volatility, zero risk-free rate) and beta against the benchmark.

Your response must follow this structure:

**Performance:**
[Which assets led and lagged, and how the portfolio compares with the benchmark]

**Risk:**
[Volatility and beta, which assets drove portfolio risk]

**Caveats:**
[Limits of the numbers: window length, equal weights, n/a or infinite values]

Guidelines:
- Only use the numbers given, do not invent prices or news
- Values shown as n/a or ∞ could not be computed, say so instead of guessing
- Keep it under 200 words
- No investment advice`

// Commentator writes a short narrative for a dashboard.
type Commentator struct {
	cli   oa.Client
	model string
}

func NewCommentator(apiKey string, opts ...option.RequestOption) *Commentator {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Commentator{cli: oa.NewClient(opts...), model: "gpt-4"}
}

// Comment asks the model to explain the dashboard summary.
func (c *Commentator) Comment(ctx context.Context, summary string) (string, error) {
	if strings.TrimSpace(summary) == "" {
		return "", errors.New("nothing to comment on")
	}
	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: c.model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(commentaryPrompt),
			oa.UserMessage("Dashboard:\n" + summary),
		},
		MaxTokens: oa.Int(600),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
