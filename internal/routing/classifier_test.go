package routing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roteiro-chatbot/internal/persona"
	"roteiro-chatbot/pkg"
)

func newTestClassifier(t *testing.T) (*Classifier, map[string]*pkg.Persona) {
	t.Helper()
	reg, err := persona.Default()
	require.NoError(t, err)
	return NewClassifier(reg), reg.Personas()
}

func requireInvariants(t *testing.T, a *pkg.RoutingAnalysis) {
	t.Helper()
	require.NotNil(t, a)
	require.NotEmpty(t, a.RecommendedPersonaID)
	require.NotEmpty(t, a.Reasoning)
	require.True(t, a.Scope.Valid())
	require.GreaterOrEqual(t, a.Confidence, 0.0)
	require.LessOrEqual(t, a.Confidence, 1.0)
	prev := a.Confidence
	for _, alt := range a.Alternatives {
		require.NotEqual(t, a.RecommendedPersonaID, alt.PersonaID)
		require.LessOrEqual(t, alt.Confidence, a.Confidence)
		require.LessOrEqual(t, alt.Confidence, prev)
		require.NotEmpty(t, alt.Reasoning)
		prev = alt.Confidence
	}
}

// TestClassify_DosageQuestion is the canonical clinical scenario: a drug
// dosing question routes to Dr. Gasnelio with dosage scope and high
// confidence.
func TestClassify_DosageQuestion(t *testing.T) {
	c, personas := newTestClassifier(t)
	a := c.Classify(Normalize("Qual a dose de rifampicina para adulto?"), personas)
	requireInvariants(t, a)
	require.Equal(t, "dr_gasnelio", a.RecommendedPersonaID)
	require.Equal(t, pkg.ScopeDosage, a.Scope)
	require.GreaterOrEqual(t, a.Confidence, 0.7)
}

func TestClassify_EducationQuestion(t *testing.T) {
	c, personas := newTestClassifier(t)
	a := c.Classify(Normalize("Como explicar para a família sobre a doença?"), personas)
	requireInvariants(t, a)
	require.Equal(t, "ga", a.RecommendedPersonaID)
	require.Equal(t, pkg.ScopeEducation, a.Scope)
	require.GreaterOrEqual(t, a.Confidence, 0.6)
}

// TestClassify_MixedKeywords verifies the tie-break policy: a specific drug
// name outweighs generic education vocabulary in the same question.
func TestClassify_MixedKeywords(t *testing.T) {
	c, personas := newTestClassifier(t)
	a := c.Classify(Normalize("Dose rifampicina família educação"), personas)
	requireInvariants(t, a)
	require.Equal(t, "dr_gasnelio", a.RecommendedPersonaID)
	require.Equal(t, pkg.ScopeDosage, a.Scope)
}

func TestClassify_DispensationQuestion(t *testing.T) {
	c, personas := newTestClassifier(t)
	a := c.Classify(Normalize("Qual o cronograma de retirada na farmácia?"), personas)
	requireInvariants(t, a)
	require.Equal(t, "ga", a.RecommendedPersonaID)
	require.Equal(t, pkg.ScopeDispensation, a.Scope)
}

// TestClassify_ZeroSignal covers the floor: empty input, pure symbols and
// off-topic text all land on the default persona at the fixed floor
// confidence with scope general, without errors.
func TestClassify_ZeroSignal(t *testing.T) {
	c, personas := newTestClassifier(t)
	for _, q := range []string{"", "@#$%&*", "xyzzy plugh abracadabra"} {
		a := c.Classify(Normalize(q), personas)
		requireInvariants(t, a)
		require.Equal(t, "dr_gasnelio", a.RecommendedPersonaID, q)
		require.Equal(t, pkg.ScopeGeneral, a.Scope, q)
		require.InDelta(t, 0.30, a.Confidence, 0.001, q)
	}
}

func TestClassify_AccentInsensitive(t *testing.T) {
	c, personas := newTestClassifier(t)
	accented := c.Classify(Normalize("Onde fica a farmácia?"), personas)
	plain := c.Classify(Normalize("Onde fica a farmacia?"), personas)
	require.Equal(t, accented.RecommendedPersonaID, plain.RecommendedPersonaID)
	require.Equal(t, accented.Scope, plain.Scope)
	require.InDelta(t, accented.Confidence, plain.Confidence, 0.001)
}

func TestClassify_AlternativesListEveryOtherPersona(t *testing.T) {
	c, personas := newTestClassifier(t)
	a := c.Classify(Normalize("Qual a dose de dapsona?"), personas)
	requireInvariants(t, a)
	require.Len(t, a.Alternatives, len(personas)-1)
}

func TestClassify_SkipsNilPersonas(t *testing.T) {
	c, personas := newTestClassifier(t)
	personas["broken"] = nil
	a := c.Classify(Normalize("Qual a dose de rifampicina?"), personas)
	requireInvariants(t, a)
	require.Equal(t, "dr_gasnelio", a.RecommendedPersonaID)
	for _, alt := range a.Alternatives {
		require.NotEqual(t, "broken", alt.PersonaID)
	}
}

func TestClassify_NoUsablePersonas(t *testing.T) {
	c, _ := newTestClassifier(t)
	require.Nil(t, c.Classify("qual a dose", map[string]*pkg.Persona{"x": nil}))
	require.Nil(t, c.Classify("qual a dose", nil))
}

// TestClassify_PathologicalInputIsFast feeds hundreds of repeated words and
// expects a sane result in well under a second.
func TestClassify_PathologicalInputIsFast(t *testing.T) {
	c, personas := newTestClassifier(t)
	long := strings.Repeat("dose rifampicina protocolo família ", 400)

	start := time.Now()
	a := c.Classify(Normalize(long), personas)
	elapsed := time.Since(start)

	requireInvariants(t, a)
	require.Equal(t, "dr_gasnelio", a.RecommendedPersonaID)
	require.Less(t, elapsed, time.Second)
}

func TestClassify_DeterministicAcrossCalls(t *testing.T) {
	c, personas := newTestClassifier(t)
	q := Normalize("Quais as reações adversas da clofazimina?")
	first := c.Classify(q, personas)
	second := c.Classify(q, personas)
	require.Equal(t, first, second)
}
