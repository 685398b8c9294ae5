package sanitize

import "strings"

// Rules is the heuristic table the pipeline classifies lines against.
// The fragments are inherently locale-specific, so they live in data
// rather than code: tests and callers can substitute their own table.
type Rules struct {
	// ResidueFragments are substrings that only appear in prompt
	// templates, never in a genuine answer. A line containing one is
	// prompt residue and is always excluded.
	ResidueFragments []string

	// StartPrefixes mark a line as the beginning of real content when
	// the lowercased trimmed line starts with one of them.
	StartPrefixes []string

	// StartPhrases mark real content by containment instead of prefix.
	StartPhrases []string
}

// DefaultRules returns the production heuristics. The residue fragments
// are excerpts of the coach prompt templates; the start signals cover
// greetings, markdown headings and common coaching openers.
func DefaultRules() Rules {
	return Rules{
		ResidueFragments: []string{
			"eres un coach estudiantil",
			"eres un asistente",
			"responde solo con",
			"responde únicamente",
			"tu tarea es",
			"instrucciones:",
			"no menciones estas instrucciones",
			"contexto del estudiante:",
			"mensaje del estudiante:",
			"system prompt",
		},
		StartPrefixes: []string{
			"!", "¡",
			"#",
			"hola", "buenas", "hey",
			"hello", "hi",
			"claro", "perfecto", "entiendo", "excelente",
		},
		StartPhrases: []string{
			"plan de estudio",
			"te recomiendo",
			"aquí tienes",
			"vamos a",
			"lo primero",
		},
	}
}

// IsResidue reports whether the line leaks prompt template text. The
// comparison is containment over the lowercased trimmed line.
func (r Rules) IsResidue(line string) bool {
	normalized := strings.ToLower(strings.TrimSpace(line))
	if normalized == "" {
		return false
	}
	for _, fragment := range r.ResidueFragments {
		if strings.Contains(normalized, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}

// IsContentStart reports whether the line looks like the first line of a
// genuine answer. Residue detection is a separate concern and takes
// priority in the assembler; this check never considers it.
func (r Rules) IsContentStart(line string) bool {
	normalized := strings.ToLower(strings.TrimSpace(line))
	if normalized == "" {
		return false
	}
	for _, prefix := range r.StartPrefixes {
		if strings.HasPrefix(normalized, strings.ToLower(prefix)) {
			return true
		}
	}
	for _, phrase := range r.StartPhrases {
		if strings.Contains(normalized, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
