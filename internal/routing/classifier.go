package routing

import (
	"sort"
	"strings"

	"roteiro-chatbot/internal/persona"
	"roteiro-chatbot/pkg"
)

const (
	// floorConfidence is assigned when a question carries no keyword signal
	// at all.  The default persona still answers; callers use the ambiguity
	// detector to decide whether to ask for clarification.
	floorConfidence = 0.30

	// expertiseTagWeight is the bonus for a question word that appears in a
	// persona's own declared expertise tags rather than the scope table.
	expertiseTagWeight = 2.0

	// scoreSmoothing damps the winner's share so a single matched keyword
	// does not produce a perfect 1.0 confidence.
	scoreSmoothing = 1.0
)

// scopePriority breaks ties between equally-scored scopes.  Drug and
// protocol vocabulary is more specific than education vocabulary, so it wins
// mixed-keyword questions.
var scopePriority = []pkg.Scope{
	pkg.ScopeDosage,
	pkg.ScopeClinical,
	pkg.ScopeDispensation,
	pkg.ScopeEducation,
}

// Classifier scores a normalized question against persona expertise using
// the registry's weighted keyword table.  It is deterministic, allocation
// light, and never fails: pathological input degrades to a low-confidence
// general result.
type Classifier struct {
	reg *persona.Registry
	// words and phrases hold the folded keyword table per scope.  Phrases
	// (keywords containing a space) are matched by substring, single words
	// by token identity.
	words   map[pkg.Scope]map[string]float64
	phrases map[pkg.Scope]map[string]float64
}

// NewClassifier folds the registry vocabulary into matchable form.
func NewClassifier(reg *persona.Registry) *Classifier {
	c := &Classifier{
		reg:     reg,
		words:   make(map[pkg.Scope]map[string]float64),
		phrases: make(map[pkg.Scope]map[string]float64),
	}
	for _, scope := range reg.Scopes() {
		words := make(map[string]float64)
		phrases := make(map[string]float64)
		for kw, w := range reg.KeywordWeights(scope) {
			folded := Fold(strings.ToLower(kw))
			if strings.Contains(folded, " ") {
				phrases[folded] = w
			} else {
				words[folded] = w
			}
		}
		c.words[scope] = words
		c.phrases[scope] = phrases
	}
	return c
}

// Classify produces a RoutingAnalysis for an already-normalized question.
// The personas map must contain at least one non-nil entry; nil entries are
// skipped.  Classify returns nil only when no usable persona remains.
func (c *Classifier) Classify(normalized string, personas map[string]*pkg.Persona) *pkg.RoutingAnalysis {
	valid := usablePersonas(personas)
	if len(valid) == 0 {
		return nil
	}

	folded := Fold(normalized)
	tokens := tokenSet(tokenize(folded))

	scopeScores := c.scoreScopes(folded, tokens)
	personaScores, total := c.scorePersonas(valid, scopeScores, tokens)

	defaultID := c.defaultPersonaID(valid)
	if total == 0 {
		return c.floorAnalysis(defaultID, valid)
	}

	topID := pickTop(personaScores, defaultID)
	scope := pickScope(scopeScores)
	confidence := clamp01(personaScores[topID] / (total + scoreSmoothing))

	reasoning := c.reg.ScopeReasoning(scope)
	if reasoning == "" {
		reasoning = generalReasoning
	}

	return &pkg.RoutingAnalysis{
		RecommendedPersonaID: topID,
		Confidence:           confidence,
		Reasoning:            reasoning,
		Scope:                scope,
		Alternatives:         c.alternatives(topID, confidence, personaScores, valid, total),
	}
}

const (
	generalReasoning = "Atendimento geral; a pergunta não traz vocabulário específico de um tema"
	floorReasoning   = "Pergunta sem sinal temático; direcionada à persona padrão"
	partialReasoning = "Cobertura parcial do tema da pergunta"
)

// scoreScopes computes the weighted keyword score of every scope.  Single
// words are matched against the token set, phrases by substring.
func (c *Classifier) scoreScopes(folded string, tokens map[string]bool) map[pkg.Scope]float64 {
	scores := make(map[pkg.Scope]float64, len(c.words))
	for scope, words := range c.words {
		var s float64
		for kw, w := range words {
			if tokens[kw] {
				s += w
			}
		}
		for phrase, w := range c.phrases[scope] {
			if strings.Contains(folded, phrase) {
				s += w
			}
		}
		scores[scope] = s
	}
	return scores
}

// scorePersonas accrues each scope's score to the personas with affinity for
// it, plus a bonus for declared expertise words found in the question.
func (c *Classifier) scorePersonas(valid map[string]*pkg.Persona, scopeScores map[pkg.Scope]float64, tokens map[string]bool) (map[string]float64, float64) {
	scores := make(map[string]float64, len(valid))
	var total float64
	for id, p := range valid {
		scopes := c.reg.ScopesFor(id)
		if len(scopes) == 0 {
			scopes = c.reg.AffinityScopes(p)
		}
		var s float64
		for _, scope := range scopes {
			s += scopeScores[scope]
		}
		s += c.expertiseBonus(p, tokens)
		scores[id] = s
		total += s
	}
	return scores, total
}

// expertiseBonus counts distinct question words that also appear in the
// persona's declared expertise tags.  Short connective words are ignored.
func (c *Classifier) expertiseBonus(p *pkg.Persona, tokens map[string]bool) float64 {
	var bonus float64
	seen := make(map[string]bool)
	for _, tag := range p.Expertise {
		for _, word := range tokenize(Fold(strings.ToLower(tag))) {
			if len(word) < 4 || seen[word] {
				continue
			}
			if tokens[word] {
				seen[word] = true
				bonus += expertiseTagWeight
			}
		}
	}
	return bonus
}

// floorAnalysis is the zero-signal result: the default persona at the fixed
// low-confidence floor with scope general.
func (c *Classifier) floorAnalysis(defaultID string, valid map[string]*pkg.Persona) *pkg.RoutingAnalysis {
	alts := make([]pkg.Alternative, 0, len(valid)-1)
	for id := range valid {
		if id == defaultID {
			continue
		}
		alts = append(alts, pkg.Alternative{
			PersonaID:  id,
			Confidence: floorConfidence / 2,
			Reasoning:  partialReasoning,
		})
	}
	sortAlternatives(alts)
	return &pkg.RoutingAnalysis{
		RecommendedPersonaID: defaultID,
		Confidence:           floorConfidence,
		Reasoning:            floorReasoning,
		Scope:                pkg.ScopeGeneral,
		Alternatives:         alts,
	}
}

// alternatives lists every non-selected persona with its own confidence,
// capped at the winner's confidence and sorted descending.
func (c *Classifier) alternatives(topID string, topConfidence float64, scores map[string]float64, valid map[string]*pkg.Persona, total float64) []pkg.Alternative {
	alts := make([]pkg.Alternative, 0, len(valid)-1)
	for id := range valid {
		if id == topID {
			continue
		}
		conf := clamp01(scores[id] / (total + scoreSmoothing))
		if conf > topConfidence {
			conf = topConfidence
		}
		reasoning := partialReasoning
		if scopes := c.reg.ScopesFor(id); len(scopes) > 0 {
			if r := c.reg.ScopeReasoning(scopes[0]); r != "" {
				reasoning = r
			}
		}
		alts = append(alts, pkg.Alternative{PersonaID: id, Confidence: conf, Reasoning: reasoning})
	}
	sortAlternatives(alts)
	return alts
}

// defaultPersonaID prefers the registry default when the caller supplied it,
// falling back to the lexicographically first persona for determinism.
func (c *Classifier) defaultPersonaID(valid map[string]*pkg.Persona) string {
	if _, ok := valid[c.reg.DefaultPersonaID()]; ok {
		return c.reg.DefaultPersonaID()
	}
	ids := make([]string, 0, len(valid))
	for id := range valid {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids[0]
}

// pickTop selects the highest-scoring persona.  Ties go to the default
// persona, then to the lexicographically smaller id.
func pickTop(scores map[string]float64, defaultID string) string {
	var topID string
	var topScore float64
	first := true
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s := scores[id]
		switch {
		case first, s > topScore:
			topID, topScore, first = id, s, false
		case s == topScore && id == defaultID:
			topID = id
		}
	}
	return topID
}

// pickScope selects the highest-scoring scope, breaking ties by priority
// order.  A zero-signal table yields ScopeGeneral.
func pickScope(scores map[pkg.Scope]float64) pkg.Scope {
	best := pkg.ScopeGeneral
	var bestScore float64
	for _, scope := range scopePriority {
		if s := scores[scope]; s > bestScore {
			best, bestScore = scope, s
		}
	}
	return best
}

func usablePersonas(personas map[string]*pkg.Persona) map[string]*pkg.Persona {
	valid := make(map[string]*pkg.Persona, len(personas))
	for id, p := range personas {
		if id == "" || p == nil {
			continue
		}
		valid[id] = p
	}
	return valid
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

func sortAlternatives(alts []pkg.Alternative) {
	sort.Slice(alts, func(i, j int) bool {
		if alts[i].Confidence != alts[j].Confidence {
			return alts[i].Confidence > alts[j].Confidence
		}
		return alts[i].PersonaID < alts[j].PersonaID
	})
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
