package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"studycoach/db"
	"studycoach/models"
	"studycoach/services/coach"
)

// SessionService ties the coaching orchestrator to session persistence.
// Replies are stored best-effort: a failing store never costs the
// student their answer.
type SessionService struct {
	repo  db.SessionRepository
	coach *coach.Service
}

func NewSessionService(repo db.SessionRepository, coachService *coach.Service) *SessionService {
	return &SessionService{
		repo:  repo,
		coach: coachService,
	}
}

func (s *SessionService) StartSession(studentID string) (*models.CoachingSession, error) {
	log.Printf("[INFO] Starting coaching session for student %s", studentID)

	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, fmt.Errorf("student ID is required")
	}

	session := &models.CoachingSession{StudentID: studentID}
	if err := s.repo.CreateSession(session); err != nil {
		log.Printf("[ERROR] Failed to create coaching session: %v", err)
		return nil, fmt.Errorf("failed to create coaching session: %w", err)
	}

	log.Printf("[INFO] Successfully started coaching session with ID %d", session.ID)
	return session, nil
}

// SendMessage runs one coaching turn and records the exchange. The
// reply itself cannot fail; only caller misuse (empty message, unknown
// session) returns an error.
func (s *SessionService) SendMessage(ctx context.Context, sessionID int, message string) (string, error) {
	log.Printf("[INFO] Processing message for session %d", sessionID)

	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("message is required")
	}

	if _, err := s.repo.GetSessionByID(sessionID); err != nil {
		log.Printf("[ERROR] Failed to load session %d: %v", sessionID, err)
		return "", err
	}

	reply := s.coach.RespondDetailed(ctx, message)

	exchange := &models.CoachingExchange{
		SessionID:   sessionID,
		UserMessage: message,
		Reply:       reply.Text,
		Source:      reply.Source,
	}
	if err := s.repo.CreateExchange(exchange); err != nil {
		log.Printf("[ERROR] Failed to store coaching exchange for session %d: %v", sessionID, err)
	}

	log.Printf("[INFO] Completed coaching turn for session %d (source: %s)", sessionID, reply.Source)
	return reply.Text, nil
}

func (s *SessionService) GetHistory(sessionID int) ([]*models.CoachingExchange, error) {
	log.Printf("[INFO] Retrieving history for session %d", sessionID)

	exchanges, err := s.repo.GetExchangesBySession(sessionID)
	if err != nil {
		log.Printf("[ERROR] Failed to get exchanges for session %d: %v", sessionID, err)
		return nil, fmt.Errorf("failed to get session history: %w", err)
	}

	log.Printf("[INFO] Retrieved %d exchanges for session %d", len(exchanges), sessionID)
	return exchanges, nil
}
