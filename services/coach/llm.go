package coach

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"studycoach/models"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	coachModel       = "gpt-4o-mini"
	coachMaxTokens   = 1024
	coachTemperature = 0.7
	maxContextDocs   = 3
)

// DocumentSearcher supplies study material for the coaching prompt.
type DocumentSearcher interface {
	SearchDocumentsByContent(searchTerms []string) ([]*models.Document, error)
}

// LLMCoach is the production Invokable: a single chat completion with a
// system and a user turn. Streamed tokens go to the transcript side
// channel; the assembled completion is the direct return value.
type LLMCoach struct {
	llm  llms.Model
	docs DocumentSearcher
}

func NewLLMCoach(apiKey string, docs DocumentSearcher) (*LLMCoach, error) {
	llm, err := openai.New(
		openai.WithModel(coachModel),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &LLMCoach{llm: llm, docs: docs}, nil
}

func (c *LLMCoach) Invoke(ctx context.Context, message string, transcript io.Writer) (string, error) {
	log.Printf("[INFO] Calling LLM for coaching response")

	prompt := fmt.Sprintf(coachUserPrompt, c.studyContext(message), message)
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, CoachSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := c.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(coachMaxTokens),
		llms.WithTemperature(coachTemperature),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			_, err := transcript.Write(chunk)
			return err
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate coaching response: %w", err)
	}

	if len(resp.Choices) == 0 {
		log.Printf("[WARN] LLM returned no choices for coaching response")
		return "", nil
	}

	log.Printf("[INFO] Successfully generated coaching response (%d chars)", len(resp.Choices[0].Content))
	return resp.Choices[0].Content, nil
}

// studyContext pulls the student's own material into the prompt. Search
// failures only cost context, never the reply.
func (c *LLMCoach) studyContext(message string) string {
	if c.docs == nil {
		return "Sin documentos relevantes."
	}

	var terms []string
	for _, word := range strings.Fields(strings.ToLower(message)) {
		word = strings.Trim(word, ".,!?;:()[]{}\"'¿¡")
		if len(word) > 3 {
			terms = append(terms, word)
		}
	}

	documents, err := c.docs.SearchDocumentsByContent(terms)
	if err != nil {
		log.Printf("[ERROR] Failed to search documents for coaching context: %v", err)
		return "Sin documentos relevantes."
	}
	if len(documents) == 0 {
		return "Sin documentos relevantes."
	}
	if len(documents) > maxContextDocs {
		documents = documents[:maxContextDocs]
	}

	var content strings.Builder
	for i, doc := range documents {
		content.WriteString(fmt.Sprintf("Documento %d (%s): %s\n", i+1, doc.Title, doc.Content))
	}
	return content.String()
}
