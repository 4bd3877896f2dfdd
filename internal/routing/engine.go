// Package routing decides which chat persona should answer a free-text
// question.  The local lexical classifier is the source of truth; a remote
// classification service is consulted opportunistically and its failures are
// swallowed, so routing keeps working when the backend is slow or down.
package routing

import (
	"context"
	"errors"
	"log/slog"

	"roteiro-chatbot/internal/persona"
	"roteiro-chatbot/internal/scope"
	"roteiro-chatbot/pkg"
)

// ErrNoPersonas is returned when the caller supplies no usable persona.
// This is a caller configuration error, not a runtime fluke, so it is the
// one condition the engine reports as an error instead of degrading.
var ErrNoPersonas = errors.New("routing: no usable personas supplied")

// ambiguityThreshold is the confidence below which an analysis should not be
// acted on without a disambiguation prompt.
const ambiguityThreshold = 0.40

// RemoteScopeClient is the optional backend classifier.  Implementations
// must report failures as values and never panic.
type RemoteScopeClient interface {
	Fetch(ctx context.Context, question string) (*scope.Result, *scope.Failure)
}

// Engine is the routing orchestrator.  It owns the result cache; the
// registry, classifier and remote client are shared read-only collaborators,
// so concurrent AnalyzeQuestionRouting calls are safe.
type Engine struct {
	reg        *persona.Registry
	classifier *Classifier
	cache      *Cache
	remote     RemoteScopeClient // nil disables the remote path
	logger     *slog.Logger
}

// NewEngine wires an engine.  remote may be nil; a nil logger falls back to
// slog.Default.
func NewEngine(reg *persona.Registry, cache *Cache, remote RemoteScopeClient, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		reg:        reg,
		classifier: NewClassifier(reg),
		cache:      cache,
		remote:     remote,
		logger:     logger,
	}
}

// AnalyzeQuestionRouting decides which persona should answer the question.
// The flow is: normalize, cache lookup, local classification, best-effort
// remote classification, merge or fall back, cache store.  It returns
// ErrNoPersonas for an empty or all-nil persona map and otherwise always
// returns a valid analysis, whatever the input or the remote's health.
func (e *Engine) AnalyzeQuestionRouting(ctx context.Context, question string, personas map[string]*pkg.Persona) (*pkg.RoutingAnalysis, error) {
	valid := usablePersonas(personas)
	if len(valid) == 0 {
		return nil, ErrNoPersonas
	}

	key := Normalize(question)
	if cached, ok := e.cache.Get(key); ok {
		return cached, nil
	}

	// The local result must stand alone: it is computed unconditionally and
	// used whenever the remote is absent, failing, or inconsistent.
	result := e.classifier.Classify(key, valid)

	if e.remote != nil {
		if remote, fail := e.remote.Fetch(ctx, question); fail != nil {
			e.logger.Warn("remote scope classification discarded",
				slog.String("reason", string(fail.Reason)),
				slog.Any("error", fail.Err))
		} else if merged := mergeRemote(remote, result, valid); merged != nil {
			result = merged
		} else {
			e.logger.Warn("remote scope result rejected",
				slog.String("persona", remote.RecommendedPersona),
				slog.String("scope", remote.Scope))
		}
	}

	// Final guard against a dangling persona reference.
	if _, ok := valid[result.RecommendedPersonaID]; !ok {
		result = e.classifier.floorAnalysis(e.classifier.defaultPersonaID(valid), valid)
	}

	e.cache.Put(key, result)
	return result, nil
}

// Expertise exposes the registry's profile lookup alongside the analysis
// entry point.
func (e *Engine) Expertise(personaID string) *pkg.ExpertiseProfile {
	return e.reg.Expertise(personaID)
}

// mergeRemote lets a remote classification take precedence over the local
// one when it names a persona the caller actually supplied and a known
// scope.  Local alternatives are kept, re-capped at the remote confidence so
// the ordering invariant holds.  Returns nil when the remote result is
// unusable.
func mergeRemote(remote *scope.Result, local *pkg.RoutingAnalysis, valid map[string]*pkg.Persona) *pkg.RoutingAnalysis {
	if _, ok := valid[remote.RecommendedPersona]; !ok {
		return nil
	}
	remoteScope := pkg.Scope(remote.Scope)
	if !remoteScope.Valid() {
		return nil
	}
	confidence := clamp01(remote.Confidence)
	alts := make([]pkg.Alternative, 0, len(local.Alternatives)+1)
	if local.RecommendedPersonaID != remote.RecommendedPersona {
		localConf := local.Confidence
		if localConf > confidence {
			localConf = confidence
		}
		alts = append(alts, pkg.Alternative{
			PersonaID:  local.RecommendedPersonaID,
			Confidence: localConf,
			Reasoning:  local.Reasoning,
		})
	}
	for _, alt := range local.Alternatives {
		if alt.PersonaID == remote.RecommendedPersona {
			continue
		}
		if alt.Confidence > confidence {
			alt.Confidence = confidence
		}
		alts = append(alts, alt)
	}
	sortAlternatives(alts)
	return &pkg.RoutingAnalysis{
		RecommendedPersonaID: remote.RecommendedPersona,
		Confidence:           confidence,
		Reasoning:            remote.Reasoning,
		Scope:                remoteScope,
		Alternatives:         alts,
	}
}

// IsAmbiguousQuestion reports whether an analysis is too weak to act on
// without asking the user to clarify: confidence under the threshold, or a
// zero-signal floor result.  A nil analysis is trivially ambiguous.
func IsAmbiguousQuestion(a *pkg.RoutingAnalysis) bool {
	if a == nil {
		return true
	}
	if a.Confidence < ambiguityThreshold {
		return true
	}
	return a.Scope == pkg.ScopeGeneral && a.Confidence <= floorConfidence
}
