package coach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"studycoach/services/sanitize"
)

type fakeAgent struct {
	invoke func(ctx context.Context, message string, transcript io.Writer) (string, error)
}

func (f *fakeAgent) Invoke(ctx context.Context, message string, transcript io.Writer) (string, error) {
	return f.invoke(ctx, message, transcript)
}

func testService(agent Invokable) *Service {
	rules := sanitize.Rules{
		ResidueFragments: []string{"eres un coach estudiantil"},
		StartPrefixes:    []string{"##", "hola"},
	}
	return NewService(agent, rules, []string{"estudio", "estrategia"})
}

func TestRespondUsesDirectReturn(t *testing.T) {
	direct := "## Hola\n" + strings.Repeat("Respuesta directa con contenido útil. ", 8)
	agent := &fakeAgent{
		invoke: func(ctx context.Context, message string, transcript io.Writer) (string, error) {
			fmt.Fprint(transcript, "texto del canal lateral que no debe usarse nunca en este caso")
			return direct, nil
		},
	}

	reply := testService(agent).RespondDetailed(context.Background(), "ayuda")
	if reply.Source != SourceDirect {
		t.Fatalf("expected source %q, got %q", SourceDirect, reply.Source)
	}
	if reply.Text != strings.TrimSpace(direct) {
		t.Errorf("expected direct return sanitized verbatim, got %q", reply.Text)
	}
	if strings.Contains(reply.Text, "canal lateral") {
		t.Errorf("side-channel text leaked into reply: %q", reply.Text)
	}
}

func TestRespondFallsBackToSubstantialCapture(t *testing.T) {
	captured := "\n\n" + strings.Repeat("Contenido largo emitido por el canal lateral durante la llamada. ", 5) + "\n\n"
	agent := &fakeAgent{
		invoke: func(ctx context.Context, message string, transcript io.Writer) (string, error) {
			fmt.Fprint(transcript, captured)
			return "", nil
		},
	}

	reply := testService(agent).RespondDetailed(context.Background(), "ayuda")
	if reply.Source != SourceCaptured {
		t.Fatalf("expected source %q, got %q", SourceCaptured, reply.Source)
	}
	if !strings.Contains(reply.Text, "Contenido largo emitido") {
		t.Errorf("expected captured text in reply, got %q", reply.Text)
	}
}

func TestRespondAcceptsMidSizedCaptureWithKeyword(t *testing.T) {
	agent := &fakeAgent{
		invoke: func(ctx context.Context, message string, transcript io.Writer) (string, error) {
			fmt.Fprint(transcript, "Una buena estrategia es repasar en bloques cortos cada día de la semana.")
			return "", nil
		},
	}

	reply := testService(agent).RespondDetailed(context.Background(), "ayuda")
	if reply.Source != SourceCaptured {
		t.Fatalf("expected source %q, got %q", SourceCaptured, reply.Source)
	}
}

func TestRespondRejectsShortIrrelevantCapture(t *testing.T) {
	agent := &fakeAgent{
		invoke: func(ctx context.Context, message string, transcript io.Writer) (string, error) {
			// Below the length threshold, no domain keyword.
			fmt.Fprint(transcript, "  una salida breve sin palabras relevantes  ")
			return "", nil
		},
	}

	reply := testService(agent).RespondDetailed(context.Background(), "ayuda")
	if reply.Text != FallbackUnavailable {
		t.Errorf("expected generic fallback, got %q", reply.Text)
	}
	if reply.Source != SourceFallback {
		t.Errorf("expected source %q, got %q", SourceFallback, reply.Source)
	}
}

func TestRespondErrorReturnsApologeticFallback(t *testing.T) {
	agent := &fakeAgent{
		invoke: func(ctx context.Context, message string, transcript io.Writer) (string, error) {
			return "", errors.New("provider unavailable")
		},
	}

	service := testService(agent)
	for i := 0; i < 3; i++ {
		reply := service.RespondDetailed(context.Background(), "ayuda")
		if reply.Text != FallbackError {
			t.Fatalf("expected exact apologetic fallback, got %q", reply.Text)
		}
		if reply.Source != SourceError {
			t.Fatalf("expected source %q, got %q", SourceError, reply.Source)
		}
	}
}

func TestRespondPanicReturnsApologeticFallback(t *testing.T) {
	agent := &fakeAgent{
		invoke: func(ctx context.Context, message string, transcript io.Writer) (string, error) {
			panic("boom")
		},
	}

	reply := testService(agent).RespondDetailed(context.Background(), "ayuda")
	if reply.Text != FallbackError {
		t.Errorf("expected apologetic fallback after panic, got %q", reply.Text)
	}
}

func TestRespondNeverReturnsEmpty(t *testing.T) {
	agents := []*fakeAgent{
		{invoke: func(ctx context.Context, message string, transcript io.Writer) (string, error) {
			return "", nil
		}},
		{invoke: func(ctx context.Context, message string, transcript io.Writer) (string, error) {
			return "", errors.New("fail")
		}},
		{invoke: func(ctx context.Context, message string, transcript io.Writer) (string, error) {
			fmt.Fprint(transcript, "x")
			return "corto", nil
		}},
		{invoke: func(ctx context.Context, message string, transcript io.Writer) (string, error) {
			return strings.Repeat("Eres un coach estudiantil. ", 10), nil
		}},
	}

	for i, agent := range agents {
		if text := testService(agent).Respond(context.Background(), "ayuda"); text == "" {
			t.Errorf("agent %d: Respond returned empty string", i)
		}
	}
}

func TestRespondSanitizesSelectedCandidate(t *testing.T) {
	raw := strings.Join([]string{
		"Eres un coach estudiantil que ayuda con los apuntes del alumno.",
		"## 🎯 Plan de estudio",
		"Paso 1: organiza tu tiempo y define bloques de 25 minutos de trabajo.",
	}, "\n")
	agent := &fakeAgent{
		invoke: func(ctx context.Context, message string, transcript io.Writer) (string, error) {
			return raw, nil
		},
	}

	reply := testService(agent).Respond(context.Background(), "ayuda")
	expected := "## 🎯 Plan de estudio\nPaso 1: organiza tu tiempo y define bloques de 25 minutos de trabajo."
	if reply != expected {
		t.Errorf("expected sanitized reply %q, got %q", expected, reply)
	}
}

func TestTrimBlankEdges(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"\n\nmiddle\n\n", "middle"},
		{"a\n\nb", "a\n\nb"},
		{"   \n\t\n", ""},
		{"solo", "solo"},
	}

	for _, tt := range tests {
		if got := trimBlankEdges(tt.input); got != tt.expected {
			t.Errorf("trimBlankEdges(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
