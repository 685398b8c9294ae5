package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"studycoach/models"
	"studycoach/services/coach"
	"studycoach/services/sanitize"
)

type fakeSessionRepo struct {
	sessions      map[int]*models.CoachingSession
	exchanges     []*models.CoachingExchange
	failExchanges bool
	nextID        int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[int]*models.CoachingSession)}
}

func (r *fakeSessionRepo) CreateSession(session *models.CoachingSession) error {
	r.nextID++
	session.ID = r.nextID
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) GetSessionByID(id int) (*models.CoachingSession, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, errors.New("coaching session not found")
	}
	return session, nil
}

func (r *fakeSessionRepo) CreateExchange(exchange *models.CoachingExchange) error {
	if r.failExchanges {
		return errors.New("store unavailable")
	}
	exchange.ID = len(r.exchanges) + 1
	exchange.CreatedAt = time.Now()
	r.exchanges = append(r.exchanges, exchange)
	return nil
}

func (r *fakeSessionRepo) GetExchangesBySession(sessionID int) ([]*models.CoachingExchange, error) {
	var result []*models.CoachingExchange
	for _, exchange := range r.exchanges {
		if exchange.SessionID == sessionID {
			result = append(result, exchange)
		}
	}
	return result, nil
}

type staticAgent struct {
	reply string
	err   error
}

func (a *staticAgent) Invoke(ctx context.Context, message string, transcript io.Writer) (string, error) {
	return a.reply, a.err
}

func testCoach(agent coach.Invokable) *coach.Service {
	return coach.NewService(agent, sanitize.DefaultRules(), coach.DefaultKeywords())
}

func TestSendMessagePersistsExchange(t *testing.T) {
	repo := newFakeSessionRepo()
	agent := &staticAgent{reply: "¡Hola! " + strings.Repeat("Aquí tienes un consejo de estudio concreto. ", 3)}
	service := NewSessionService(repo, testCoach(agent))

	session, err := service.StartSession("student-1")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	reply, err := service.SendMessage(context.Background(), session.ID, "¿cómo organizo mi semana?")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if reply == "" {
		t.Fatal("SendMessage returned empty reply")
	}

	if len(repo.exchanges) != 1 {
		t.Fatalf("expected 1 stored exchange, got %d", len(repo.exchanges))
	}
	exchange := repo.exchanges[0]
	if exchange.Reply != reply {
		t.Errorf("stored reply %q does not match returned reply %q", exchange.Reply, reply)
	}
	if exchange.Source != coach.SourceDirect {
		t.Errorf("expected source %q, got %q", coach.SourceDirect, exchange.Source)
	}
}

func TestSendMessageSurvivesStoreFailure(t *testing.T) {
	repo := newFakeSessionRepo()
	agent := &staticAgent{reply: strings.Repeat("Una estrategia útil es estudiar en bloques cortos. ", 3)}
	service := NewSessionService(repo, testCoach(agent))

	session, err := service.StartSession("student-1")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	repo.failExchanges = true
	reply, err := service.SendMessage(context.Background(), session.ID, "ayuda")
	if err != nil {
		t.Fatalf("SendMessage returned error despite store-only failure: %v", err)
	}
	if reply == "" {
		t.Fatal("SendMessage returned empty reply")
	}
}

func TestSendMessageRecordsFallbackSource(t *testing.T) {
	repo := newFakeSessionRepo()
	agent := &staticAgent{err: errors.New("provider down")}
	service := NewSessionService(repo, testCoach(agent))

	session, err := service.StartSession("student-1")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	reply, err := service.SendMessage(context.Background(), session.ID, "ayuda")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if reply != coach.FallbackError {
		t.Errorf("expected apologetic fallback, got %q", reply)
	}
	if repo.exchanges[0].Source != coach.SourceError {
		t.Errorf("expected source %q, got %q", coach.SourceError, repo.exchanges[0].Source)
	}
}

func TestGetHistoryReturnsSessionExchangesInOrder(t *testing.T) {
	repo := newFakeSessionRepo()
	agent := &staticAgent{reply: strings.Repeat("Un consejo de estudio concreto para tu semana. ", 3)}
	service := NewSessionService(repo, testCoach(agent))

	session, err := service.StartSession("student-1")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	other, err := service.StartSession("student-2")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	messages := []string{"¿cómo empiezo?", "¿y después?"}
	for _, message := range messages {
		if _, err := service.SendMessage(context.Background(), session.ID, message); err != nil {
			t.Fatalf("SendMessage failed: %v", err)
		}
	}
	if _, err := service.SendMessage(context.Background(), other.ID, "otra sesión"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	history, err := service.GetHistory(session.ID)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(history) != len(messages) {
		t.Fatalf("expected %d exchanges, got %d", len(messages), len(history))
	}
	for i, exchange := range history {
		if exchange.UserMessage != messages[i] {
			t.Errorf("exchange %d: expected message %q, got %q", i, messages[i], exchange.UserMessage)
		}
		if exchange.Reply == "" {
			t.Errorf("exchange %d: stored empty reply", i)
		}
	}
}

func TestSendMessageValidation(t *testing.T) {
	repo := newFakeSessionRepo()
	service := NewSessionService(repo, testCoach(&staticAgent{reply: "ok"}))

	if _, err := service.SendMessage(context.Background(), 1, "   "); err == nil {
		t.Error("expected error for empty message")
	}
	if _, err := service.SendMessage(context.Background(), 42, "hola"); err == nil {
		t.Error("expected error for unknown session")
	}
	if _, err := service.StartSession("  "); err == nil {
		t.Error("expected error for empty student ID")
	}
}
