package sanitize

import (
	"strings"
	"testing"
)

func testRules() Rules {
	return Rules{
		ResidueFragments: []string{
			"eres un coach estudiantil",
			"responde solo con",
		},
		StartPrefixes: []string{"##", "hola", "!"},
		StartPhrases:  []string{"plan de estudio"},
	}
}

func TestStripEscapes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no escapes is a no-op",
			input:    "plain text\nwith lines",
			expected: "plain text\nwith lines",
		},
		{
			name:     "color codes removed",
			input:    "\x1b[32mgreen\x1b[0m text",
			expected: "green text",
		},
		{
			name:     "cursor movement removed",
			input:    "\x1b[2Jcleared\x1b[1;1H",
			expected: "cleared",
		},
		{
			name:     "whitespace preserved",
			input:    "  \x1b[1mbold\x1b[0m  \n\ttabbed",
			expected: "  bold  \n\ttabbed",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StripEscapes(tt.input)
			if result != tt.expected {
				t.Errorf("StripEscapes() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestStripEscapesIdempotent(t *testing.T) {
	inputs := []string{
		"\x1b[31mred\x1b[0m",
		"no escapes at all",
		"\x1b[1;32m\x1b[4munderlined green\x1b[0m mixed \x1b[2J",
		"",
	}

	for _, input := range inputs {
		once := StripEscapes(input)
		twice := StripEscapes(once)
		if once != twice {
			t.Errorf("StripEscapes not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name: "prompt echo stripped before heading",
			input: strings.Join([]string{
				"Eres un coach estudiantil...",
				"Responde solo con...",
				"## 🎯 Plan de estudio",
				"Paso 1: organiza tu tiempo.",
			}, "\n"),
			expected: "## 🎯 Plan de estudio\nPaso 1: organiza tu tiempo.",
		},
		{
			name: "residue excluded after content has started",
			input: strings.Join([]string{
				"## Consejos",
				"Primero: descansa bien.",
				"Eres un coach estudiantil, responde en español.",
				"Segundo: practica a diario.",
			}, "\n"),
			expected: "## Consejos\nPrimero: descansa bien.\nSegundo: practica a diario.",
		},
		{
			name:     "greeting prefix starts content",
			input:    "responde solo con texto plano\nHola Ana, empecemos.\nRevisemos tu semana.",
			expected: "Hola Ana, empecemos.\nRevisemos tu semana.",
		},
		{
			name:     "domain phrase starts content mid line",
			input:    "ignored preamble\nTu plan de estudio semanal queda así:\n- lunes: repaso",
			expected: "Tu plan de estudio semanal queda así:\n- lunes: repaso",
		},
		{
			name:     "no start signal recovers tail",
			input:    "short\nalso short\nEsta línea final es suficientemente larga para recuperarla.",
			expected: "Esta línea final es suficientemente larga para recuperarla.",
		},
		{
			name: "reverse scan keeps everything after the cut point",
			input: strings.Join([]string{
				"x",
				"Una línea sustancial sin señal de inicio que sirve de corte.",
				"y",
				"z",
			}, "\n"),
			expected: "Una línea sustancial sin señal de inicio que sirve de corte.\ny\nz",
		},
		{
			name: "reverse scan drops residue after the cut point",
			input: strings.Join([]string{
				"x",
				"Una línea sustancial sin señal de inicio que sirve de corte.",
				"Eres un coach estudiantil y esta línea es residuo del prompt.",
			}, "\n"),
			expected: "Una línea sustancial sin señal de inicio que sirve de corte.",
		},
		{
			name:     "all residue and nothing recoverable returns original",
			input:    "Eres un coach estudiantil\nresponde solo con\neres un coach estudiantil otra vez",
			expected: "Eres un coach estudiantil\nresponde solo con\neres un coach estudiantil otra vez",
		},
		{
			name:     "empty input returns empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "escape sequences stripped from kept lines",
			input:    "## Título\x1b[0m\nContenido \x1b[32mverde\x1b[0m.",
			expected: "## Título\nContenido verde.",
		},
		{
			name:     "result trimmed",
			input:    "## Resumen\nÚltima línea.\n\n\n",
			expected: "## Resumen\nÚltima línea.",
		},
	}

	rules := testRules()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clean(tt.input, rules)
			if result != tt.expected {
				t.Errorf("Clean() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestCleanNeverEmptyForNonEmptyInput(t *testing.T) {
	rules := testRules()
	inputs := []string{
		"x",
		"responde solo con",
		"   \n  \n",
		"\x1b[0m",
		"Una respuesta corriente sin nada que filtrar en absoluto.",
	}

	for _, input := range inputs {
		if result := Clean(input, rules); result == "" {
			t.Errorf("Clean(%q) returned empty string for non-empty input", input)
		}
	}
}

func TestRulesClassification(t *testing.T) {
	rules := testRules()

	tests := []struct {
		line    string
		residue bool
		start   bool
	}{
		{"Eres un coach estudiantil muy amable", true, false},
		{"  RESPONDE SOLO CON json  ", true, false},
		{"## Encabezado", false, true},
		{"hola, ¿cómo estás?", false, true},
		{"tu plan de estudio para hoy", false, true},
		{"una línea cualquiera", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		if got := rules.IsResidue(tt.line); got != tt.residue {
			t.Errorf("IsResidue(%q) = %v, expected %v", tt.line, got, tt.residue)
		}
		if got := rules.IsContentStart(tt.line); got != tt.start {
			t.Errorf("IsContentStart(%q) = %v, expected %v", tt.line, got, tt.start)
		}
	}
}

func BenchmarkClean(b *testing.B) {
	rules := DefaultRules()
	input := strings.Repeat("Eres un coach estudiantil, responde con empatía.\n", 5) +
		"## Plan de la semana\n" +
		strings.Repeat("Dedica 25 minutos a cada bloque de estudio y descansa 5.\n", 20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Clean(input, rules)
	}
}
