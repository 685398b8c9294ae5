package services

import (
	"fmt"
	"log"
	"strings"

	"studycoach/db"
	"studycoach/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

type DocumentService struct {
	repo db.DocumentRepository
}

func NewDocumentService(repo db.DocumentRepository) *DocumentService {
	return &DocumentService{repo: repo}
}

func (s *DocumentService) CreateDocument(req *models.CreateDocumentRequest) (*models.Document, error) {
	log.Printf("[INFO] Starting document creation")

	if err := s.validateCreateRequest(req); err != nil {
		log.Printf("[ERROR] Document creation validation failed: %v", err)
		return nil, err
	}

	doc := &models.Document{
		Title:   strings.TrimSpace(req.Title),
		Content: strings.TrimSpace(req.Content),
	}

	if err := s.repo.CreateDocument(doc); err != nil {
		log.Printf("[ERROR] Failed to create document in repository: %v", err)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	log.Printf("[INFO] Successfully created document with ID %d", doc.ID)
	return doc, nil
}

func (s *DocumentService) GetDocumentByID(id int) (*models.Document, error) {
	log.Printf("[INFO] Starting get document by ID %d", id)

	if id <= 0 {
		log.Printf("[ERROR] Invalid document ID provided: %d", id)
		return nil, fmt.Errorf("invalid document ID: %d", id)
	}

	doc, err := s.repo.GetDocumentByID(id)
	if err != nil {
		log.Printf("[ERROR] Failed to get document by ID %d: %v", id, err)
		return nil, err
	}

	log.Printf("[INFO] Successfully retrieved document with ID %d", id)
	return doc, nil
}

func (s *DocumentService) GetAllDocuments() ([]*models.Document, error) {
	log.Printf("[INFO] Starting get all documents")

	documents, err := s.repo.GetAllDocuments()
	if err != nil {
		log.Printf("[ERROR] Failed to get all documents: %v", err)
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}

	log.Printf("[INFO] Successfully retrieved %d documents", len(documents))
	return documents, nil
}

func (s *DocumentService) UpdateDocument(id int, req *models.UpdateDocumentRequest) (*models.Document, error) {
	log.Printf("[INFO] Starting update document with ID %d", id)

	if id <= 0 {
		log.Printf("[ERROR] Invalid document ID provided for update: %d", id)
		return nil, fmt.Errorf("invalid document ID: %d", id)
	}

	if err := s.validateUpdateRequest(req); err != nil {
		log.Printf("[ERROR] Document update validation failed for ID %d: %v", id, err)
		return nil, err
	}

	updates := make(map[string]any)

	if req.Title != nil {
		trimmedTitle := strings.TrimSpace(*req.Title)
		if trimmedTitle == "" {
			log.Printf("[ERROR] Empty title provided for document ID %d", id)
			return nil, fmt.Errorf("title cannot be empty")
		}
		updates["title"] = trimmedTitle
	}

	if req.Content != nil {
		trimmedContent := strings.TrimSpace(*req.Content)
		if trimmedContent == "" {
			log.Printf("[ERROR] Empty content provided for document ID %d", id)
			return nil, fmt.Errorf("content cannot be empty")
		}
		updates["content"] = trimmedContent
	}

	if len(updates) == 0 {
		log.Printf("[ERROR] No valid updates provided for document ID %d", id)
		return nil, fmt.Errorf("no valid updates provided")
	}

	if err := s.repo.UpdateDocument(id, updates); err != nil {
		log.Printf("[ERROR] Failed to update document ID %d in repository: %v", id, err)
		return nil, err
	}

	log.Printf("[INFO] Successfully updated document with ID %d", id)
	return s.repo.GetDocumentByID(id)
}

func (s *DocumentService) DeleteDocument(id int) error {
	log.Printf("[INFO] Starting delete document with ID %d", id)

	if id <= 0 {
		log.Printf("[ERROR] Invalid document ID provided for deletion: %d", id)
		return fmt.Errorf("invalid document ID: %d", id)
	}

	if err := s.repo.DeleteDocument(id); err != nil {
		log.Printf("[ERROR] Failed to delete document ID %d: %v", id, err)
		return err
	}

	log.Printf("[INFO] Successfully deleted document with ID %d", id)
	return nil
}

func (s *DocumentService) validateCreateRequest(req *models.CreateDocumentRequest) error {
	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}

	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title is required")
	}

	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("content is required")
	}

	return nil
}

func (s *DocumentService) validateUpdateRequest(req *models.UpdateDocumentRequest) error {
	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}

	if req.Title == nil && req.Content == nil {
		return fmt.Errorf("at least one field must be provided for update")
	}

	return nil
}

func (s *DocumentService) SearchDocumentsByContent(searchTerms []string) ([]*models.Document, error) {
	log.Printf("[INFO] Starting document search with %d search terms", len(searchTerms))

	documents, err := s.GetAllDocuments()
	if err != nil {
		return nil, fmt.Errorf("failed to get documents for search: %w", err)
	}

	if len(searchTerms) == 0 {
		log.Printf("[INFO] No search terms provided, returning all %d documents", len(documents))
		return documents, nil
	}

	matchingDocuments := lo.Filter(documents, func(doc *models.Document, index int) bool {
		return s.documentMatchesSearch(doc, searchTerms)
	})

	log.Printf("[INFO] Found %d documents matching search criteria", len(matchingDocuments))
	return matchingDocuments, nil
}

func (s *DocumentService) documentMatchesSearch(doc *models.Document, searchTerms []string) bool {
	searchable := doc.Title + "\n" + doc.Content
	words := strings.Fields(strings.ToLower(searchable))

	for _, term := range searchTerms {
		// Exact match (highest priority)
		if fuzzy.MatchFold(term, searchable) {
			return true
		}

		// Clean words by removing punctuation
		cleanWords := make([]string, 0, len(words))
		for _, word := range words {
			cleanWord := strings.Trim(word, ".,!?;:()[]{}\"'¿¡")
			if len(cleanWord) > 0 {
				cleanWords = append(cleanWords, cleanWord)
			}
		}

		// Use fuzzy search against individual words
		matches := fuzzy.Find(term, cleanWords)
		if len(matches) > 0 {
			return true
		}
	}

	return false
}
