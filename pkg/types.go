package pkg

// Scope is the topical category assigned to a question.  The zero value is
// not valid; unmatched questions are tagged ScopeGeneral.
type Scope string

const (
	ScopeClinical     Scope = "clinical"
	ScopeDosage       Scope = "dosage"
	ScopeEducation    Scope = "education"
	ScopeDispensation Scope = "dispensation"
	ScopeGeneral      Scope = "general"
)

// Valid reports whether s is one of the known scope tags.
func (s Scope) Valid() bool {
	switch s {
	case ScopeClinical, ScopeDosage, ScopeEducation, ScopeDispensation, ScopeGeneral:
		return true
	}
	return false
}

// Persona describes one of the platform's response personalities.  Instances
// are supplied by the caller (or loaded from the embedded catalog) and are
// treated as read-only by the routing engine.
type Persona struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Avatar           string   `json:"avatar"`
	Personality      string   `json:"personality"`
	Expertise        []string `json:"expertise"`
	ResponseStyle    string   `json:"response_style"`
	TargetAudience   string   `json:"target_audience"`
	SystemPrompt     string   `json:"system_prompt"`
	Capabilities     []string `json:"capabilities"`
	ExampleQuestions []string `json:"example_questions"`
	Limitations      []string `json:"limitations"`
	ResponseFormat   string   `json:"response_format"`
}

// ExpertiseProfile is the queryable view of a persona's competence derived
// from its declared expertise plus the static scope vocabulary.
type ExpertiseProfile struct {
	PersonaID      string   `json:"persona_id"`
	ExpertiseAreas []string `json:"expertise_areas"`
	Keywords       []string `json:"keywords"`
	Specialties    []string `json:"specialties"`
}

// Alternative is a non-selected persona with its own confidence.
type Alternative struct {
	PersonaID  string  `json:"persona_id"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// RoutingAnalysis is the routing engine's answer for a single question:
// which persona should respond, how sure the engine is, and why.
// Alternatives are sorted by descending confidence, never include the
// recommended persona, and never exceed its confidence.
type RoutingAnalysis struct {
	RecommendedPersonaID string        `json:"recommended_persona_id"`
	Confidence           float64       `json:"confidence"`
	Reasoning            string        `json:"reasoning"`
	Scope                Scope         `json:"scope"`
	Alternatives         []Alternative `json:"alternatives"`
}

// AnalyzeRequest is the body accepted by POST /api/routing/analyze.
type AnalyzeRequest struct {
	Question string `json:"question"`
}

// AnalyzeResponse wraps a RoutingAnalysis with the ambiguity verdict so the
// UI can decide whether to show a disambiguation prompt.
type AnalyzeResponse struct {
	Analysis  *RoutingAnalysis `json:"analysis"`
	Ambiguous bool             `json:"ambiguous"`
}
