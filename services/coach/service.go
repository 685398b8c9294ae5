package coach

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"studycoach/services/sanitize"
)

// Fixed replies for the two degraded outcomes. The pipeline never
// surfaces a failure to the student: every path resolves to a string.
const (
	// FallbackUnavailable is returned when the invocation succeeded but
	// produced nothing usable on either channel.
	FallbackUnavailable = "Estoy aquí para apoyarte en tus estudios. Cuéntame un poco más sobre lo que te gustaría trabajar y lo vemos juntos. 💪"

	// FallbackError is returned when the invocation failed or panicked.
	FallbackError = "Lo siento, tuve un problema generando tu respuesta. ¿Podrías reformular tu pregunta e intentarlo de nuevo?"
)

// Reply sources recorded alongside each exchange.
const (
	SourceDirect   = "direct"
	SourceCaptured = "captured"
	SourceFallback = "fallback"
	SourceError    = "error"
)

const (
	minDirectChars      = 50
	minCapturedChars    = 50
	substantialCaptured = 200
)

// Invokable is the underlying agent. Invoke returns the model's direct
// answer and may additionally emit text through the transcript side
// channel while it runs (streamed tokens, tool activity). The
// orchestrator owns the transcript buffer and reads it on every exit
// path, so implementations are free to write to it right up to return.
type Invokable interface {
	Invoke(ctx context.Context, message string, transcript io.Writer) (string, error)
}

// Reply is a sanitized answer plus where its text came from.
type Reply struct {
	Text   string
	Source string
}

type Service struct {
	agent    Invokable
	rules    sanitize.Rules
	keywords []string
}

// NewService builds the orchestrator around an agent. Rules and keywords
// are passed explicitly so tests can substitute minimal tables; callers
// normally pass sanitize.DefaultRules() and DefaultKeywords().
func NewService(agent Invokable, rules sanitize.Rules, keywords []string) *Service {
	return &Service{
		agent:    agent,
		rules:    rules,
		keywords: keywords,
	}
}

// DefaultKeywords returns the coaching vocabulary used to accept
// mid-sized captured text as relevant content.
func DefaultKeywords() []string {
	return []string{
		"consejo", "estrategia", "técnica", "tecnica",
		"estudio", "estudiar", "motivación", "motivacion",
		"hábito", "habito", "concentración", "concentracion",
		"advice", "strategy", "technique", "study", "motivation",
	}
}

// Respond invokes the agent once and returns a clean, user-presentable
// answer. It never returns an error and never returns an empty string.
func (s *Service) Respond(ctx context.Context, message string) string {
	return s.RespondDetailed(ctx, message).Text
}

// RespondDetailed is Respond plus the source marker for persistence.
func (s *Service) RespondDetailed(ctx context.Context, message string) (reply Reply) {
	transcript := &transcriptBuffer{}

	// A panicking agent must degrade to the apologetic fallback, not
	// propagate.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] Agent invocation panicked: %v", r)
			reply = Reply{Text: FallbackError, Source: SourceError}
		}
	}()

	direct, err := s.agent.Invoke(ctx, message, transcript)
	captured := transcript.String()
	if err != nil {
		log.Printf("[ERROR] Agent invocation failed: %v", err)
		return Reply{Text: FallbackError, Source: SourceError}
	}

	candidate, source, ok := s.selectCandidate(direct, captured)
	if !ok {
		log.Printf("[WARN] No usable content from agent invocation (direct: %d chars, captured: %d chars)", len(direct), len(captured))
		return Reply{Text: FallbackUnavailable, Source: SourceFallback}
	}

	return Reply{Text: sanitize.Clean(candidate, s.rules), Source: source}
}

// selectCandidate applies the preference order: a substantial direct
// return wins; otherwise captured side-channel text is accepted when it
// is long enough on its own, or mid-sized and on topic.
func (s *Service) selectCandidate(direct, captured string) (string, string, bool) {
	if utf8.RuneCountInString(strings.TrimSpace(direct)) > minDirectChars {
		return direct, SourceDirect, true
	}

	if captured == "" {
		return "", "", false
	}

	text := trimBlankEdges(captured)
	length := utf8.RuneCountInString(text)
	switch {
	case length > substantialCaptured:
		return text, SourceCaptured, true
	case length > minCapturedChars && s.containsKeyword(text):
		return text, SourceCaptured, true
	}

	return "", "", false
}

func (s *Service) containsKeyword(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range s.keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// trimBlankEdges drops runs of fully-blank lines from both ends while
// leaving interior blank lines alone.
func trimBlankEdges(text string) string {
	lines := strings.Split(text, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

// transcriptBuffer is the scoped side-channel capture. Streaming
// callbacks may write from another goroutine, so writes are locked.
type transcriptBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *transcriptBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *transcriptBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
