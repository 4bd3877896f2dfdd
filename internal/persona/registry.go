package persona

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	_ "embed"

	"roteiro-chatbot/pkg"
)

//go:embed personas.json
var personasJSON []byte

//go:embed vocabulary.json
var vocabularyJSON []byte

// scopeRule is one entry of the static vocabulary: the domain keywords that
// signal a scope, the expertise tags that bind a persona to it, and the
// human-readable justification used when the scope wins.
type scopeRule struct {
	AffinityTags []string           `json:"affinity_tags"`
	Reasoning    string             `json:"reasoning"`
	Keywords     map[string]float64 `json:"keywords"`
}

// vocabulary is the full embedded scope → keyword weight table.
type vocabulary struct {
	DefaultPersona string                   `json:"default_persona"`
	Scopes         map[pkg.Scope]*scopeRule `json:"scopes"`
}

// Registry derives queryable expertise profiles from persona metadata plus
// the static scope vocabulary.  It is immutable after construction and safe
// for concurrent use.
type Registry struct {
	personas map[string]*pkg.Persona
	vocab    *vocabulary
	// scopesByPersona caches the affinity computation done at build time.
	scopesByPersona map[string][]pkg.Scope
}

// NewRegistry builds a registry over the supplied persona map.  Entries that
// are nil or that match no scope in the vocabulary are rejected so that the
// non-empty profile invariant holds for every persona the registry accepts.
func NewRegistry(personas map[string]*pkg.Persona) (*Registry, error) {
	var vocab vocabulary
	if err := json.Unmarshal(vocabularyJSON, &vocab); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	r := &Registry{
		personas:        make(map[string]*pkg.Persona, len(personas)),
		vocab:           &vocab,
		scopesByPersona: make(map[string][]pkg.Scope, len(personas)),
	}
	for id, p := range personas {
		if p == nil || id == "" {
			continue
		}
		scopes := r.affinityScopes(p)
		if len(scopes) == 0 {
			// No expertise overlap with any scope: unusable for routing.
			continue
		}
		r.personas[id] = p
		r.scopesByPersona[id] = scopes
	}
	return r, nil
}

// Default loads the embedded persona catalog and builds a registry over it.
func Default() (*Registry, error) {
	var catalog map[string]*pkg.Persona
	if err := json.Unmarshal(personasJSON, &catalog); err != nil {
		return nil, fmt.Errorf("decode persona catalog: %w", err)
	}
	return NewRegistry(catalog)
}

// AffinityScopes returns the scopes whose affinity tags overlap a persona's
// declared expertise.  It works for personas the registry has never seen,
// which lets the classifier score caller-supplied persona maps.
func (r *Registry) AffinityScopes(p *pkg.Persona) []pkg.Scope {
	if p == nil {
		return nil
	}
	return r.affinityScopes(p)
}

// affinityScopes returns the scopes whose affinity tags overlap the
// persona's declared expertise, in a stable order.
func (r *Registry) affinityScopes(p *pkg.Persona) []pkg.Scope {
	var scopes []pkg.Scope
	for scope, rule := range r.vocab.Scopes {
		for _, tag := range rule.AffinityTags {
			if expertiseMatches(p.Expertise, tag) {
				scopes = append(scopes, scope)
				break
			}
		}
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i] < scopes[j] })
	return scopes
}

func expertiseMatches(expertise []string, tag string) bool {
	tag = strings.ToLower(tag)
	for _, e := range expertise {
		if strings.Contains(strings.ToLower(e), tag) {
			return true
		}
	}
	return false
}

// Expertise returns the derived profile for a persona id, or nil when the id
// is unknown or was rejected at construction.  The three slices are always
// non-empty for a non-nil result.
func (r *Registry) Expertise(personaID string) *pkg.ExpertiseProfile {
	p, ok := r.personas[personaID]
	if !ok {
		return nil
	}
	scopes := r.scopesByPersona[personaID]
	specialties := make([]string, 0, len(scopes))
	keywords := make([]string, 0, 32)
	seen := make(map[string]bool)
	for _, scope := range scopes {
		specialties = append(specialties, string(scope))
		rule := r.vocab.Scopes[scope]
		for kw := range rule.Keywords {
			if !seen[kw] {
				seen[kw] = true
				keywords = append(keywords, kw)
			}
		}
	}
	for _, tag := range p.Expertise {
		if !seen[tag] {
			seen[tag] = true
			keywords = append(keywords, tag)
		}
	}
	sort.Strings(keywords)
	return &pkg.ExpertiseProfile{
		PersonaID:      personaID,
		ExpertiseAreas: append([]string(nil), p.Expertise...),
		Keywords:       keywords,
		Specialties:    specialties,
	}
}

// Personas returns the accepted persona map.  Callers must not mutate the
// returned personas.
func (r *Registry) Personas() map[string]*pkg.Persona {
	out := make(map[string]*pkg.Persona, len(r.personas))
	for id, p := range r.personas {
		out[id] = p
	}
	return out
}

// Persona returns the persona for an id, or nil when unknown.
func (r *Registry) Persona(id string) *pkg.Persona { return r.personas[id] }

// DefaultPersonaID is the catch-all persona used when a question carries no
// distinguishing signal.
func (r *Registry) DefaultPersonaID() string { return r.vocab.DefaultPersona }

// ScopesFor lists the scopes a persona has affinity with.
func (r *Registry) ScopesFor(personaID string) []pkg.Scope {
	return append([]pkg.Scope(nil), r.scopesByPersona[personaID]...)
}

// KeywordWeights returns the raw (accented, as authored) keyword weight
// table for a scope.  The classifier folds these into its matching form.
func (r *Registry) KeywordWeights(scope pkg.Scope) map[string]float64 {
	rule, ok := r.vocab.Scopes[scope]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(rule.Keywords))
	for kw, w := range rule.Keywords {
		out[kw] = w
	}
	return out
}

// ScopeReasoning returns the justification text attached to a scope, or an
// empty string for unknown scopes.
func (r *Registry) ScopeReasoning(scope pkg.Scope) string {
	if rule, ok := r.vocab.Scopes[scope]; ok {
		return rule.Reasoning
	}
	return ""
}

// Scopes lists every scope the vocabulary knows about, in a stable order.
func (r *Registry) Scopes() []pkg.Scope {
	scopes := make([]pkg.Scope, 0, len(r.vocab.Scopes))
	for s := range r.vocab.Scopes {
		scopes = append(scopes, s)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i] < scopes[j] })
	return scopes
}
