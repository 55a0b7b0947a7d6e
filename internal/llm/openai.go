package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/polemica/internal/logger"
)

const (
	defaultOpenAIModel = openai.GPT4oMini
	defaultMaxTokens   = 1000
	defaultTimeout     = 30 * time.Second
	summaryTemperature = 0.2
)

// systemPrompt keeps the model in a reporter's role: the report's numbers are
// final and only its own links may be cited
const systemPrompt = `You write short, neutral digests of automated controversy reports.
The score, flag and item severities were computed by a deterministic analyzer and are final: do not re-rate them.
Cite only links that appear in the report. When the report has few items or unavailable sources, say so.`

var errMissingKey = errors.New("openai: API key is required (set llm.api_key or OPENAI_API_KEY)")

// CitationError lists the links a summary cited that are not in the report
type CitationError struct {
	Leaked []string
}

func (e *CitationError) Error() string {
	return fmt.Sprintf("CITATION LEAK: summary cites %d link(s) outside the report: %s",
		len(e.Leaked), strings.Join(e.Leaked, ", "))
}

// OpenAIProvider summarizes reports through the Chat Completions API of
// OpenAI or any compatible server (llm.base_url)
type OpenAIProvider struct {
	client *openai.Client
	config Config
	log    logrus.FieldLogger
}

// NewOpenAIProvider validates config and fills in model, token and timeout
// defaults once so every request sees the same settings
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, errMissingKey
	}
	if config.Model == "" {
		config.Model = defaultOpenAIModel
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		log:    logger.OrDefault(nil),
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable asks the endpoint for the configured model, which checks the
// key and that the model is actually served
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.GetModel(ctx, p.config.Model); err != nil {
		p.log.WithField("model", p.config.Model).WithError(err).Warn("summary model unavailable")
		return false
	}
	return true
}

// Summarize writes a digest of req.Report. With strict evidence on, a digest
// citing any link outside req.AllowedURLs is rejected with a *CitationError.
func (p *OpenAIProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	chat := p.chatRequest(req)

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai chat completion: empty choices")
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		p.log.WithField("max_tokens", chat.MaxTokens).Warn("summary truncated at the token limit")
	}

	text := strings.TrimSpace(choice.Message.Content)
	cited := extractURLs(text)
	if p.config.StrictEvidence {
		if err := verifyCitations(cited, req.AllowedURLs); err != nil {
			return nil, err
		}
	}

	return &SummarizeResponse{
		Summary:    text,
		CitedURLs:  cited,
		Model:      chat.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// chatRequest resolves per-request overrides against the provider settings
func (p *OpenAIProvider) chatRequest(req SummarizeRequest) openai.ChatCompletionRequest {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Report, req.AllowedURLs)
	}

	chat := openai.ChatCompletionRequest{
		Model:       p.config.Model,
		MaxTokens:   p.config.MaxTokens,
		Temperature: summaryTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if req.Model != "" {
		chat.Model = req.Model
	}
	if req.MaxTokens > 0 {
		chat.MaxTokens = req.MaxTokens
	}
	return chat
}

// verifyCitations returns a *CitationError naming every cited link that is
// not one of the allowed report links
func verifyCitations(cited, allowed []string) error {
	permitted := make(map[string]bool, len(allowed))
	for _, u := range allowed {
		permitted[u] = true
	}

	var leaked []string
	for _, u := range cited {
		if !permitted[u] {
			leaked = append(leaked, u)
		}
	}
	if len(leaked) > 0 {
		return &CitationError{Leaked: leaked}
	}
	return nil
}

// linkPattern stops at closing brackets so Markdown links [x](url) parse
var linkPattern = regexp.MustCompile(`https?://[^\s\)\]>"]+`)

// extractURLs returns the distinct links in text, in order of appearance,
// without trailing sentence punctuation
func extractURLs(text string) []string {
	seen := make(map[string]bool)
	var links []string
	for _, u := range linkPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?")
		if seen[u] {
			continue
		}
		seen[u] = true
		links = append(links, u)
	}
	return links
}
