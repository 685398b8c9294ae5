package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"studycoach/config"
	"studycoach/db"
	"studycoach/services"
	"studycoach/services/agent"
	"studycoach/services/coach"
	"studycoach/services/docindex"
	"studycoach/services/sanitize"
)

func main() {
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DB_URL environment variable is required")
	}

	documentRepo, err := db.NewPostgresDocumentRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize document database: %v", err)
	}
	defer documentRepo.Close()

	sessionRepo, err := db.NewPostgresSessionRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize session database: %v", err)
	}
	defer sessionRepo.Close()

	documentService := services.NewDocumentService(documentRepo)

	invokable, err := buildInvokable(cfg, documentService)
	if err != nil {
		log.Fatalf("Failed to initialize coach backend: %v", err)
	}

	coachService := coach.NewService(invokable, sanitize.DefaultRules(), coach.DefaultKeywords())
	sessionService := services.NewSessionService(sessionRepo, coachService)

	studentID := os.Getenv("STUDENT_ID")
	if studentID == "" {
		studentID = "local"
	}

	session, err := sessionService.StartSession(studentID)
	if err != nil {
		log.Fatalf("Failed to start coaching session: %v", err)
	}

	fmt.Printf("Coaching session %d started (backend: %s). Type /history to review the session, empty line to exit.\n", session.ID, cfg.CoachBackend)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	ctx := context.Background()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			break
		}

		if message == "/history" {
			printHistory(sessionService, session.ID)
			continue
		}

		reply, err := sessionService.SendMessage(ctx, session.ID, message)
		if err != nil {
			log.Printf("[ERROR] Failed to process message: %v", err)
			continue
		}

		fmt.Printf("\n%s\n\n", reply)
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
}

func printHistory(sessionService *services.SessionService, sessionID int) {
	exchanges, err := sessionService.GetHistory(sessionID)
	if err != nil {
		log.Printf("[ERROR] Failed to load session history: %v", err)
		return
	}
	if len(exchanges) == 0 {
		fmt.Println("\nNo exchanges in this session yet.")
		return
	}

	fmt.Println()
	for _, exchange := range exchanges {
		fmt.Printf("[%s] > %s\n%s\n\n", exchange.CreatedAt.Format("15:04"), exchange.UserMessage, exchange.Reply)
	}
}

// buildInvokable picks the coaching backend: a plain chat completion
// ("llm") or the tool-using tutor agent ("agent").
func buildInvokable(cfg *config.Config, documentService *services.DocumentService) (coach.Invokable, error) {
	switch cfg.CoachBackend {
	case "agent":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required for the agent backend")
		}

		var docindexService *docindex.Service
		if cfg.PineconeAPIKey != "" && cfg.OpenAIAPIKey != "" {
			var err error
			docindexService, err = docindex.NewService(cfg.PineconeAPIKey, cfg.OpenAIAPIKey, cfg.PineconeIndexName)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize document index service: %w", err)
			}
		} else {
			log.Printf("[WARN] PINECONE_API_KEY or OPENAI_API_KEY missing, agent runs without the knowledge index")
		}

		tutor, err := agent.NewService(cfg.AnthropicAPIKey, documentService, docindexService)
		if err != nil {
			return nil, err
		}
		return tutor, nil
	case "llm":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for the llm backend")
		}
		llmCoach, err := coach.NewLLMCoach(cfg.OpenAIAPIKey, documentService)
		if err != nil {
			return nil, err
		}
		return llmCoach, nil
	default:
		return nil, fmt.Errorf("unknown coach backend %q (expected \"llm\" or \"agent\")", cfg.CoachBackend)
	}
}
