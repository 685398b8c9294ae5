package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"studycoach/config"
	"studycoach/db"
	"studycoach/models"
	"studycoach/services"
	"studycoach/services/docindex"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/protobuf/types/known/structpb"
)

type DocumentChunk struct {
	ID              string
	DocumentID      int
	ChunkIndex      int
	Heading         string
	HeadingPath     []string
	Content         string
	OriginalContent string
	EnrichedContext string
}

type EnrichChunkContextParams struct {
	EnrichedSummary string `json:"enriched_summary"`
}

var enrichmentTools = []llms.Tool{
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "enrich_chunk_context",
			Description: "Provide an enriched contextual summary for a study material chunk",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"enriched_summary": map[string]any{
						"type":        "string",
						"description": "A self-contained summary explaining what this chunk covers, its place within the full document, and why it matters for studying the subject.",
					},
				},
				"required": []string{"enriched_summary"},
			},
		},
	},
}

func main() {
	log.Printf("[INFO] Starting document indexing process")

	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("[ERROR] DB_URL environment variable is required")
	}
	if cfg.PineconeAPIKey == "" {
		log.Fatal("[ERROR] PINECONE_API_KEY environment variable is required")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Fatal("[ERROR] OPENAI_API_KEY environment variable is required")
	}

	documentRepo, err := db.NewPostgresDocumentRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[ERROR] Failed to initialize document database: %v", err)
	}
	defer documentRepo.Close()

	documentService := services.NewDocumentService(documentRepo)

	llm, err := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithToken(cfg.OpenAIAPIKey),
	)
	if err != nil {
		log.Fatalf("[ERROR] Failed to create OpenAI client: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		log.Fatalf("[ERROR] Failed to create embedder: %v", err)
	}

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.PineconeAPIKey,
	})
	if err != nil {
		log.Fatalf("[ERROR] Failed to create Pinecone client: %v", err)
	}

	indexName := cfg.PineconeIndexName
	if indexName == "" {
		indexName = docindex.IndexName
	}
	if err := ensurePineconeIndex(pc, indexName); err != nil {
		log.Fatalf("[ERROR] Failed to ensure Pinecone index: %v", err)
	}

	documents, err := documentService.GetAllDocuments()
	if err != nil {
		log.Fatalf("[ERROR] Failed to retrieve documents: %v", err)
	}

	log.Printf("[INFO] Retrieved %d documents from database", len(documents))

	for i, doc := range documents {
		log.Printf("[INFO] Processing document %d/%d (ID: %d)", i+1, len(documents), doc.ID)

		if err := processDocument(pc, indexName, doc, llm, embedder); err != nil {
			log.Printf("[ERROR] Failed to process document ID %d: %v", doc.ID, err)
			continue
		}

		log.Printf("[INFO] Successfully processed document ID %d", doc.ID)
	}

	log.Printf("[INFO] Document indexing process completed successfully")
}

func ensurePineconeIndex(pc *pinecone.Client, indexName string) error {
	ctx := context.Background()

	indexes, err := pc.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}

	for _, idx := range indexes {
		if idx.Name == indexName {
			log.Printf("[INFO] Index %s already exists", indexName)
			return nil
		}
	}

	log.Printf("[INFO] Creating Pinecone index: %s", indexName)
	dimension := int32(1536) // OpenAI ada-002 embedding dimension
	deletionProtection := pinecone.DeletionProtectionDisabled
	metric := pinecone.Cosine

	_, err = pc.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:               indexName,
		Dimension:          &dimension,
		Metric:             &metric,
		Cloud:              pinecone.Aws,
		Region:             "us-east-1",
		DeletionProtection: &deletionProtection,
		Tags:               &pinecone.IndexTags{"environment": "development", "project": "studycoach-indexing"},
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	for {
		idx, err := pc.DescribeIndex(ctx, indexName)
		if err != nil {
			return fmt.Errorf("failed to describe index: %w", err)
		}
		if idx.Status.Ready {
			log.Printf("[INFO] Index %s is ready", indexName)
			break
		}
		log.Printf("[INFO] Waiting for index %s to be ready...", indexName)
		time.Sleep(10 * time.Second)
	}

	return nil
}

func processDocument(pc *pinecone.Client, indexName string, doc *models.Document, llm llms.Model, embedder embeddings.Embedder) error {
	log.Printf("[INFO] Chunking document ID %d", doc.ID)
	chunks := chunkMarkdownByHeadings(doc)
	if len(chunks) == 0 {
		log.Printf("[INFO] No chunks created for document ID %d", doc.ID)
		return nil
	}
	log.Printf("[INFO] Created %d chunks for document ID %d", len(chunks), doc.ID)

	log.Printf("[INFO] Deleting existing vectors for document ID %d", doc.ID)
	if err := deleteExistingVectors(pc, indexName, doc.ID); err != nil {
		return fmt.Errorf("failed to delete existing vectors: %w", err)
	}

	for i := range chunks {
		log.Printf("[INFO] Processing chunk %d/%d for document ID %d (Heading: %s)", i+1, len(chunks), doc.ID, chunks[i].Heading)

		enrichedContext, err := enrichChunkContext(llm, chunks[i])
		if err != nil {
			log.Printf("[ERROR] Failed to enrich chunk %d for document ID %d: %v", i+1, doc.ID, err)
			chunks[i].EnrichedContext = chunks[i].Content // Fallback to original content
		} else {
			chunks[i].EnrichedContext = enrichedContext
		}

		vector, err := createVector(chunks[i], embedder)
		if err != nil {
			return fmt.Errorf("failed to create vector for chunk %d: %w", i+1, err)
		}

		if err := upsertVector(pc, indexName, vector); err != nil {
			return fmt.Errorf("failed to upsert chunk %d: %w", i+1, err)
		}
		log.Printf("[INFO] Successfully upserted chunk %d for document ID %d", i+1, doc.ID)
	}

	return nil
}

func chunkMarkdownByHeadings(doc *models.Document) []DocumentChunk {
	content := doc.Content
	lines := strings.Split(content, "\n")

	var chunks []DocumentChunk
	var currentChunk strings.Builder
	var currentHeading string
	var headingStack []string
	chunkIndex := 0

	headingRegex := regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

	flush := func() {
		chunkContent := strings.TrimSpace(currentChunk.String())
		if chunkContent == "" {
			return
		}
		chunk := DocumentChunk{
			ID:              fmt.Sprintf("doc_%d_chunk_%d", doc.ID, chunkIndex),
			DocumentID:      doc.ID,
			ChunkIndex:      chunkIndex,
			Heading:         currentHeading,
			HeadingPath:     make([]string, len(headingStack)),
			Content:         chunkContent,
			OriginalContent: content,
		}
		copy(chunk.HeadingPath, headingStack)
		chunks = append(chunks, chunk)
		chunkIndex++
	}

	for _, line := range lines {
		if match := headingRegex.FindStringSubmatch(line); match != nil {
			flush()
			currentChunk.Reset()

			headingLevel := len(match[1])
			currentHeading = match[2]

			if headingLevel <= len(headingStack) {
				headingStack = headingStack[:headingLevel-1]
			}
			headingStack = append(headingStack, currentHeading)
		}
		currentChunk.WriteString(line + "\n")
	}
	flush()

	// Document with no headings becomes a single chunk
	if len(chunks) == 0 && strings.TrimSpace(content) != "" {
		chunks = append(chunks, DocumentChunk{
			ID:              fmt.Sprintf("doc_%d_chunk_0", doc.ID),
			DocumentID:      doc.ID,
			ChunkIndex:      0,
			Heading:         doc.Title,
			HeadingPath:     []string{},
			Content:         content,
			OriginalContent: content,
		})
	}

	return chunks
}

func enrichChunkContext(llm llms.Model, chunk DocumentChunk) (string, error) {
	ctx := context.Background()

	log.Printf("[INFO] Starting LLM enrichment for chunk: %s (Document ID: %d, Chunk: %d)", chunk.Heading, chunk.DocumentID, chunk.ChunkIndex)

	systemPrompt := `You are an expert at analyzing study material and providing enriched contextual summaries.

Your task is to create a comprehensive summary that:
1. Explains what this specific chunk covers
2. Provides context about how it fits within the larger document
3. Highlights why this information matters for studying the subject
4. Makes the chunk self-contained and searchable

The enriched summary should let a student understand the chunk's content and significance without reading the entire original document.`

	headingPathStr := ""
	if len(chunk.HeadingPath) > 0 {
		headingPathStr = fmt.Sprintf("Section hierarchy: %s", strings.Join(chunk.HeadingPath, " → "))
	}

	userPrompt := fmt.Sprintf(`Please analyze this study material chunk and create an enriched contextual summary.

CHUNK TO ANALYZE:
Heading: %s
%s
Content: %s

FULL DOCUMENT CONTEXT:
%s

Create a comprehensive summary that explains what this chunk is about, its context within the larger document, and why it is relevant for studying.`,
		chunk.Heading, headingPathStr, chunk.Content, chunk.OriginalContent)

	messageHistory := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	resp, err := llm.GenerateContent(ctx, messageHistory,
		llms.WithTools(enrichmentTools),
		llms.WithTemperature(0.3),
		llms.WithToolChoice("required"))
	if err != nil {
		return "", fmt.Errorf("failed to generate enrichment: %w", err)
	}

	if len(resp.Choices) == 0 || len(resp.Choices[0].ToolCalls) == 0 {
		return "", fmt.Errorf("no tool calls in enrichment response")
	}

	toolCall := resp.Choices[0].ToolCalls[0]
	if toolCall.FunctionCall.Name != "enrich_chunk_context" {
		return "", fmt.Errorf("unexpected function call: %s", toolCall.FunctionCall.Name)
	}

	var params EnrichChunkContextParams
	if err := json.Unmarshal([]byte(toolCall.FunctionCall.Arguments), &params); err != nil {
		return "", fmt.Errorf("failed to parse enrichment arguments: %w", err)
	}

	return params.EnrichedSummary, nil
}

func deleteExistingVectors(pc *pinecone.Client, indexName string, documentID int) error {
	ctx := context.Background()

	idxConn, err := indexConnection(pc, indexName)
	if err != nil {
		return err
	}

	prefix := fmt.Sprintf("doc_%d_", documentID)
	limit := uint32(100)

	listResp, err := idxConn.ListVectors(ctx, &pinecone.ListVectorsRequest{
		Prefix: &prefix,
		Limit:  &limit,
	})
	if err != nil {
		// Namespace missing just means nothing was indexed yet
		if strings.Contains(err.Error(), "Namespace not found") {
			return nil
		}
		return fmt.Errorf("failed to list vectors: %w", err)
	}

	for len(listResp.VectorIds) > 0 {
		vectorIDs := make([]string, 0, len(listResp.VectorIds))
		for _, vectorID := range listResp.VectorIds {
			if vectorID != nil {
				vectorIDs = append(vectorIDs, *vectorID)
			}
		}

		if len(vectorIDs) > 0 {
			if err := idxConn.DeleteVectorsById(ctx, vectorIDs); err != nil {
				return fmt.Errorf("failed to delete vector batch: %w", err)
			}
			log.Printf("[INFO] Deleted %d vectors for document ID %d", len(vectorIDs), documentID)
		}

		if listResp.NextPaginationToken == nil {
			break
		}
		listResp, err = idxConn.ListVectors(ctx, &pinecone.ListVectorsRequest{
			Prefix:          &prefix,
			Limit:           &limit,
			PaginationToken: listResp.NextPaginationToken,
		})
		if err != nil {
			return fmt.Errorf("failed to list next batch of vectors: %w", err)
		}
	}

	return nil
}

func createVector(chunk DocumentChunk, embedder embeddings.Embedder) (*pinecone.Vector, error) {
	ctx := context.Background()

	combinedText := fmt.Sprintf("Heading: %s\n\nContent: %s\n\nContext: %s",
		chunk.Heading, chunk.Content, chunk.EnrichedContext)

	vectors, err := embedder.EmbedDocuments(ctx, []string{combinedText})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	metadata := map[string]any{
		"document_id":      chunk.DocumentID,
		"chunk_index":      chunk.ChunkIndex,
		"heading":          chunk.Heading,
		"heading_path":     strings.Join(chunk.HeadingPath, " → "),
		"content":          chunk.Content,
		"enriched_context": chunk.EnrichedContext,
		"created_at":       time.Now().Format(time.RFC3339),
	}

	metadataStruct, err := structpb.NewStruct(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata struct for chunk %s: %w", chunk.ID, err)
	}

	return &pinecone.Vector{
		Id:       chunk.ID,
		Values:   &vectors[0],
		Metadata: metadataStruct,
	}, nil
}

func upsertVector(pc *pinecone.Client, indexName string, vector *pinecone.Vector) error {
	ctx := context.Background()

	idxConn, err := indexConnection(pc, indexName)
	if err != nil {
		return err
	}

	if _, err := idxConn.UpsertVectors(ctx, []*pinecone.Vector{vector}); err != nil {
		return fmt.Errorf("failed to upsert vector: %w", err)
	}

	return nil
}

func indexConnection(pc *pinecone.Client, indexName string) (*pinecone.IndexConnection, error) {
	ctx := context.Background()

	idxDesc, err := pc.DescribeIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}

	idxConn, err := pc.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: docindex.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}

	return idxConn, nil
}
