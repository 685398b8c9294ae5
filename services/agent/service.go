package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"studycoach/services"
	"studycoach/services/docindex"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// maxToolRounds bounds the tool loop so a model that keeps requesting
// tools cannot spin forever.
const maxToolRounds = 5

type Service struct {
	client *anthropic.Client
	tools  []AgentTool
}

func NewService(anthropicAPIKey string, documentService *services.DocumentService, docindexService *docindex.Service) (*Service, error) {
	client := anthropic.NewClient(option.WithAPIKey(anthropicAPIKey))

	tools := []AgentTool{
		NewListDocumentsTool(documentService),
		NewReadDocumentTool(documentService),
		NewSearchDocumentsTool(documentService),
	}
	if docindexService != nil {
		tools = append(tools, NewSearchKnowledgeTool(docindexService))
	}

	return &Service{
		client: &client,
		tools:  tools,
	}, nil
}

// Invoke runs the tutor agent on a single student message. Intermediate
// assistant text and tool activity are written to the transcript as they
// happen; the returned string is the model's final text after the last
// tool round.
func (s *Service) Invoke(ctx context.Context, message string, transcript io.Writer) (string, error) {
	log.Printf("[INFO] Starting tutor agent invocation")

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
	}
	toolSpecs := s.buildAnthropicToolSpecs()

	var finalText string
	for round := 0; round < maxToolRounds; round++ {
		response, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.ModelClaude4Sonnet20250514,
			MaxTokens: 2048,
			System:    []anthropic.TextBlockParam{{Text: TutorSystemPrompt}},
			Messages:  messages,
			Tools:     toolSpecs,
		})
		if err != nil {
			log.Printf("[ERROR] Failed to call Anthropic API: %v", err)
			return "", fmt.Errorf("failed to call Anthropic API: %w", err)
		}

		var toolUses []anthropic.ToolUseBlock
		roundText := ""

		for _, block := range response.Content {
			switch block := block.AsAny().(type) {
			case anthropic.TextBlock:
				roundText += block.Text
			case anthropic.ToolUseBlock:
				toolUses = append(toolUses, block)
			}
		}

		if roundText != "" {
			fmt.Fprintln(transcript, roundText)
			finalText = roundText
		}

		if len(toolUses) == 0 {
			log.Printf("[INFO] Tutor agent finished after %d round(s)", round+1)
			return finalText, nil
		}

		messages = append(messages, response.ToParam())

		var resultBlocks []anthropic.ContentBlockParamUnion
		for _, toolUse := range toolUses {
			inputJSON, _ := json.Marshal(toolUse.Input)
			log.Printf("[INFO] Executing tool: %s with arguments: %s", toolUse.Name, inputJSON)
			fmt.Fprintf(transcript, "[tool %s] %s\n", toolUse.Name, inputJSON)

			result, err := s.executeTool(ctx, toolUse.Name, string(inputJSON))
			if err != nil {
				log.Printf("[ERROR] Tool execution failed: %v", err)
				result = fmt.Sprintf("Error: %v", err)
			}

			resultBlocks = append(resultBlocks, anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: toolUse.ID,
					Content: []anthropic.ToolResultBlockParamContentUnion{
						{OfText: &anthropic.TextBlockParam{Text: result}},
					},
				},
			})
		}
		messages = append(messages, anthropic.NewUserMessage(resultBlocks...))
	}

	log.Printf("[WARN] Tutor agent hit the tool round limit (%d)", maxToolRounds)
	return finalText, nil
}

func (s *Service) buildAnthropicToolSpecs() []anthropic.ToolUnionParam {
	var toolSpecs []anthropic.ToolUnionParam

	for _, tool := range s.tools {
		toolSpecs = append(toolSpecs, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name(),
				Description: anthropic.String(tool.Description()),
				InputSchema: tool.GetAnthropicToolSpec(),
			},
		})
	}

	return toolSpecs
}

func (s *Service) executeTool(ctx context.Context, toolName, arguments string) (string, error) {
	for _, tool := range s.tools {
		if tool.Name() == toolName {
			return tool.Call(ctx, arguments)
		}
	}
	return "", fmt.Errorf("tool %s not found", toolName)
}
