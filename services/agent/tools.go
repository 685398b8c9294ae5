package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"studycoach/services"
	"studycoach/services/docindex"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
)

// AgentTool interface that all tools must implement
type AgentTool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input string) (string, error)
	GetAnthropicToolSpec() anthropic.ToolInputSchemaParam
}

func generateAnthropicSchema[T any]() anthropic.ToolInputSchemaParam {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
	}
}

type ListDocumentsToolInput struct{}

type ListDocumentsTool struct {
	documentService *services.DocumentService
}

func NewListDocumentsTool(documentService *services.DocumentService) ListDocumentsTool {
	return ListDocumentsTool{documentService: documentService}
}

func (l ListDocumentsTool) Name() string {
	return "list_documents"
}

func (l ListDocumentsTool) Description() string {
	return "Lists all study documents with preview information including ID, title, a content preview and creation date"
}

func (l ListDocumentsTool) Call(ctx context.Context, input string) (string, error) {
	var params ListDocumentsToolInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse list documents tool input: %v", err)
	}

	documents, err := l.documentService.GetAllDocuments()
	if err != nil {
		return "", fmt.Errorf("failed to get documents: %v", err)
	}

	type DocumentPreview struct {
		ID         int    `json:"id"`
		Title      string `json:"title"`
		Preview    string `json:"preview"`
		CreatedAt  string `json:"created_at"`
		TotalLines int    `json:"total_lines"`
	}

	var previews []DocumentPreview
	for _, doc := range documents {
		preview := doc.Content
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		previews = append(previews, DocumentPreview{
			ID:         doc.ID,
			Title:      doc.Title,
			Preview:    preview,
			CreatedAt:  doc.CreatedAt.Format(time.RFC3339),
			TotalLines: len(strings.Split(doc.Content, "\n")),
		})
	}

	result, err := json.Marshal(previews)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document previews: %v", err)
	}

	return string(result), nil
}

func (l ListDocumentsTool) GetAnthropicToolSpec() anthropic.ToolInputSchemaParam {
	return generateAnthropicSchema[ListDocumentsToolInput]()
}

type ReadDocumentToolInput struct {
	DocumentID      int `json:"document_id" jsonschema:"required,description=The ID of the document to read"`
	LineNumberStart int `json:"line_number_start,omitempty" jsonschema:"description=Starting line number (default: 1)"`
	LineNumberEnd   int `json:"line_number_end,omitempty" jsonschema:"description=Ending line number (default: end of document)"`
}

type ReadDocumentTool struct {
	documentService *services.DocumentService
}

func NewReadDocumentTool(documentService *services.DocumentService) ReadDocumentTool {
	return ReadDocumentTool{documentService: documentService}
}

func (r ReadDocumentTool) Name() string {
	return "read_document"
}

func (r ReadDocumentTool) Description() string {
	return "Reads the content of a specific study document with optional line number range"
}

func (r ReadDocumentTool) Call(ctx context.Context, input string) (string, error) {
	var params ReadDocumentToolInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse read document tool input: %v", err)
	}

	doc, err := r.documentService.GetDocumentByID(params.DocumentID)
	if err != nil {
		return "", fmt.Errorf("failed to get document: %v", err)
	}

	lines := strings.Split(doc.Content, "\n")

	start := params.LineNumberStart
	if start < 1 {
		start = 1
	}
	end := params.LineNumberEnd
	if end < 1 || end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return "", fmt.Errorf("invalid line range %d-%d for document with %d lines", start, end, len(lines))
	}

	var content strings.Builder
	content.WriteString(fmt.Sprintf("Document %d: %s (lines %d-%d of %d)\n", doc.ID, doc.Title, start, end, len(lines)))
	for i := start; i <= end; i++ {
		content.WriteString(fmt.Sprintf("%d: %s\n", i, lines[i-1]))
	}

	return content.String(), nil
}

func (r ReadDocumentTool) GetAnthropicToolSpec() anthropic.ToolInputSchemaParam {
	return generateAnthropicSchema[ReadDocumentToolInput]()
}

type SearchDocumentsToolInput struct {
	SearchTerms []string `json:"search_terms" jsonschema:"required,description=Keywords to search for in document titles and content"`
}

type SearchDocumentsTool struct {
	documentService *services.DocumentService
}

func NewSearchDocumentsTool(documentService *services.DocumentService) SearchDocumentsTool {
	return SearchDocumentsTool{documentService: documentService}
}

func (s SearchDocumentsTool) Name() string {
	return "search_documents"
}

func (s SearchDocumentsTool) Description() string {
	return "Searches study documents by keywords with typo-tolerant matching, returning matching documents with previews"
}

func (s SearchDocumentsTool) Call(ctx context.Context, input string) (string, error) {
	var params SearchDocumentsToolInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse search documents tool input: %v", err)
	}

	if len(params.SearchTerms) == 0 {
		return "", fmt.Errorf("at least one search term is required")
	}

	documents, err := s.documentService.SearchDocumentsByContent(params.SearchTerms)
	if err != nil {
		return "", fmt.Errorf("failed to search documents: %v", err)
	}

	type SearchResult struct {
		ID      int    `json:"id"`
		Title   string `json:"title"`
		Preview string `json:"preview"`
	}

	results := make([]SearchResult, 0, len(documents))
	for _, doc := range documents {
		preview := doc.Content
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		results = append(results, SearchResult{
			ID:      doc.ID,
			Title:   doc.Title,
			Preview: preview,
		})
	}

	result, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to marshal search results: %v", err)
	}

	return string(result), nil
}

func (s SearchDocumentsTool) GetAnthropicToolSpec() anthropic.ToolInputSchemaParam {
	return generateAnthropicSchema[SearchDocumentsToolInput]()
}

type SearchKnowledgeToolInput struct {
	Topics []string `json:"topics" jsonschema:"required,description=Topics to look up in the semantic knowledge index"`
	Limit  int      `json:"limit,omitempty" jsonschema:"description=Maximum number of chunks to return (default: 5)"`
}

type SearchKnowledgeTool struct {
	docindexService *docindex.Service
}

func NewSearchKnowledgeTool(docindexService *docindex.Service) SearchKnowledgeTool {
	return SearchKnowledgeTool{docindexService: docindexService}
}

func (s SearchKnowledgeTool) Name() string {
	return "search_knowledge"
}

func (s SearchKnowledgeTool) Description() string {
	return "Semantic search over the indexed study material, returning the most relevant chunks for the given topics"
}

func (s SearchKnowledgeTool) Call(ctx context.Context, input string) (string, error) {
	var params SearchKnowledgeToolInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse search knowledge tool input: %v", err)
	}

	if len(params.Topics) == 0 {
		return "", fmt.Errorf("at least one topic is required")
	}
	if params.Limit <= 0 {
		params.Limit = 5
	}

	chunks, err := s.docindexService.QueryTopicChunks(params.Topics, params.Limit)
	if err != nil {
		return "", fmt.Errorf("failed to query knowledge index: %v", err)
	}

	if len(chunks) == 0 {
		return "No relevant study material found for the given topics.", nil
	}

	return strings.Join(chunks, "\n\n=== CHUNK SEPARATOR ===\n\n"), nil
}

func (s SearchKnowledgeTool) GetAnthropicToolSpec() anthropic.ToolInputSchemaParam {
	return generateAnthropicSchema[SearchKnowledgeToolInput]()
}
