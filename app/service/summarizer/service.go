package summarizer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"lorekeeper/app/client/host"
	"lorekeeper/app/client/llm"
	"lorekeeper/app/config"

	_ "embed"

	"github.com/samber/do"
)

//go:embed summary_prompt.txt
var defaultPromptTemplate string

type completionAPI interface {
	Complete(ctx context.Context, request llm.CompletionRequest) (string, error)
}

type generateAPI interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service produces a summary of recent chat messages, either through a
// separate OpenAI-compatible endpoint or the host's current model.
type Service struct {
	cfg        *config.Config
	llmClient  completionAPI
	hostClient generateAPI
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:        do.MustInvoke[*config.Config](di),
		llmClient:  do.MustInvoke[*llm.Client](di),
		hostClient: do.MustInvoke[*host.Client](di),
	}, nil
}

func (s *Service) Summarize(ctx context.Context, messages []host.Message, characterName, userName string) (string, error) {
	prompt := RenderPrompt(s.promptTemplate(), userName, characterName, len(messages))
	transcript := FormatTranscript(messages, characterName, userName)

	if s.cfg.Plugin.UseSeparateModel && s.cfg.Plugin.SeparateModelEndpoint != "" {
		summary, err := s.llmClient.Complete(ctx, llm.CompletionRequest{
			Endpoint:     s.cfg.Plugin.SeparateModelEndpoint,
			APIKey:       s.cfg.Plugin.SeparateModelAPIKey,
			Model:        s.cfg.Plugin.SeparateModelName,
			SystemPrompt: prompt,
			UserPrompt:   transcript,
		})
		if err != nil {
			return "", fmt.Errorf("separate model summarization failed: %w", err)
		}

		return strings.TrimSpace(summary), nil
	}

	summary, err := s.hostClient.Generate(ctx, prompt, transcript)
	if err != nil {
		return "", fmt.Errorf("host model summarization failed: %w", err)
	}

	return strings.TrimSpace(summary), nil
}

func (s *Service) promptTemplate() string {
	if strings.TrimSpace(s.cfg.Plugin.SummarizationPrompt) != "" {
		return s.cfg.Plugin.SummarizationPrompt
	}

	return defaultPromptTemplate
}

// FormatTranscript renders messages as "speaker: text" lines.
func FormatTranscript(messages []host.Message, characterName, userName string) string {
	var builder strings.Builder

	for i, msg := range messages {
		if i > 0 {
			builder.WriteString("\n")
		}

		speaker := userName
		if msg.IsCharacter {
			speaker = characterName
		}

		builder.WriteString(speaker)
		builder.WriteString(": ")
		builder.WriteString(msg.Text)
	}

	return builder.String()
}

// RenderPrompt substitutes {{user}}, {{char}} and {{count}} in template.
func RenderPrompt(template, userName, characterName string, count int) string {
	templateValues := map[string]string{
		"user":  userName,
		"char":  characterName,
		"count": strconv.Itoa(count),
	}

	prompt := template
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{{"+key+"}}", value)
	}

	return prompt
}
