package db

import (
	"database/sql"
	"fmt"

	"studycoach/models"

	_ "github.com/lib/pq"
)

type SessionRepository interface {
	CreateSession(session *models.CoachingSession) error
	GetSessionByID(id int) (*models.CoachingSession, error)
	CreateExchange(exchange *models.CoachingExchange) error
	GetExchangesBySession(sessionID int) ([]*models.CoachingExchange, error)
}

type PostgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(databaseURL string) (*PostgresSessionRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSessionRepository{db: db}, nil
}

func (r *PostgresSessionRepository) CreateSession(session *models.CoachingSession) error {
	query := `
		INSERT INTO studycoach.coaching_sessions (student_id)
		VALUES ($1)
		RETURNING id, created_at, updated_at`

	row := r.db.QueryRow(query, session.StudentID)

	err := row.Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create coaching session: %w", err)
	}

	return nil
}

func (r *PostgresSessionRepository) GetSessionByID(id int) (*models.CoachingSession, error) {
	query := `
		SELECT id, student_id, created_at, updated_at
		FROM studycoach.coaching_sessions
		WHERE id = $1`

	session := &models.CoachingSession{}
	row := r.db.QueryRow(query, id)

	err := row.Scan(&session.ID, &session.StudentID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("coaching session with id %d not found", id)
		}
		return nil, fmt.Errorf("failed to get coaching session: %w", err)
	}

	return session, nil
}

func (r *PostgresSessionRepository) CreateExchange(exchange *models.CoachingExchange) error {
	query := `
		INSERT INTO studycoach.coaching_exchanges (session_id, user_message, reply, source)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	row := r.db.QueryRow(query, exchange.SessionID, exchange.UserMessage, exchange.Reply, exchange.Source)

	err := row.Scan(&exchange.ID, &exchange.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create coaching exchange: %w", err)
	}

	return nil
}

func (r *PostgresSessionRepository) GetExchangesBySession(sessionID int) ([]*models.CoachingExchange, error) {
	query := `
		SELECT id, session_id, user_message, reply, source, created_at
		FROM studycoach.coaching_exchanges
		WHERE session_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query coaching exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := make([]*models.CoachingExchange, 0)
	for rows.Next() {
		exchange := &models.CoachingExchange{}
		err := rows.Scan(&exchange.ID, &exchange.SessionID, &exchange.UserMessage, &exchange.Reply, &exchange.Source, &exchange.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coaching exchange: %w", err)
		}
		exchanges = append(exchanges, exchange)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over coaching exchanges: %w", err)
	}

	return exchanges, nil
}

func (r *PostgresSessionRepository) Close() error {
	return r.db.Close()
}
