// Package enrich generates short display blurbs for species profiles
// through the OpenAI chat API. Blurbs are presentation copy only and
// never feed back into depth or threat analysis.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey is returned when no OpenAI key is configured.
var ErrMissingAPIKey = errors.New("missing OpenAI API key: set OPENAI_API_KEY in your environment")

// DefaultMaxWords bounds blurb length in the prompt.
const DefaultMaxWords = 60

// Subject carries the facts a blurb may draw on.
type Subject struct {
	CommonName     string
	ScientificName string
	Status         string
	DepthNotes     string
	Threats        []string
}

// Options configures an Enricher.
type Options struct {
	APIKey   string
	Model    string // defaults to gpt-4o-mini
	BaseURL  string // custom endpoint, used by tests
	MaxWords int
	Timeout  time.Duration
	Logger   zerolog.Logger
}

// Enricher writes blurbs with OpenAI chat completions.
type Enricher struct {
	client   *openai.Client
	model    string
	maxWords int
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewEnricher validates the key and builds the client.
func NewEnricher(opts Options) (*Enricher, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = opts.BaseURL
	}

	model := opts.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	maxWords := opts.MaxWords
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Enricher{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		maxWords: maxWords,
		timeout:  timeout,
		logger:   opts.Logger,
	}, nil
}

// Blurb generates one blurb for the subject.
func (e *Enricher) Blurb(ctx context.Context, subject Subject) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You write short factual blurbs for a marine conservation site. Stick strictly to the facts you are given.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(subject, e.maxWords),
			},
		},
		MaxTokens:   e.maxWords * 4,
		Temperature: 0.3,
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	blurb := strings.TrimSpace(resp.Choices[0].Message.Content)
	e.logger.Debug().
		Str("species", subject.CommonName).
		Int("tokens", resp.Usage.TotalTokens).
		Msg("blurb generated")
	return blurb, nil
}

// BuildPrompt assembles the user prompt from the subject's facts.
func BuildPrompt(s Subject, maxWords int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a blurb of at most %d words about the %s (%s) for a wildlife conservation site.\n\n", maxWords, s.CommonName, s.ScientificName)
	b.WriteString("Facts you may use:\n")
	fmt.Fprintf(&b, "- Conservation status: %s\n", s.Status)
	if len(s.Threats) > 0 {
		fmt.Fprintf(&b, "- Known threats: %s\n", strings.Join(s.Threats, ", "))
	} else {
		b.WriteString("- Known threats: none listed\n")
	}
	if notes := strings.TrimSpace(s.DepthNotes); notes != "" {
		fmt.Fprintf(&b, "- Habitat notes: %s\n", clip(notes, 600))
	}
	b.WriteString("\nRules: plain prose, at most two sentences, no headings, no URLs, no numbers that are not in the facts above.")
	return b.String()
}

// clip shortens long narratives so prompts stay small.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
