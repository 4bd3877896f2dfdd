package routing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNormalize_Invariance checks that casing, spacing and repeated trailing
// punctuation all collapse to one canonical form.
func TestNormalize_Invariance(t *testing.T) {
	variants := []string{
		"Qual a dose?",
		"QUAL A DOSE?",
		"qual   a  dose???",
		"  qual a dose...  ",
		"qual\ta\ndose",
	}
	for _, v := range variants {
		require.Equal(t, "qual a dose", Normalize(v), v)
	}
}

func TestNormalize_EmptyAndWhitespace(t *testing.T) {
	require.Equal(t, "", Normalize(""))
	require.Equal(t, "", Normalize("   \t\n  "))
	require.Equal(t, "", Normalize("???!!!..."))
}

func TestNormalize_KeepsAccents(t *testing.T) {
	require.Equal(t, "onde fica a farmácia", Normalize("Onde fica a FARMÁCIA?"))
}

func TestFold_StripsDiacritics(t *testing.T) {
	require.Equal(t, "farmacia", Fold("farmácia"))
	require.Equal(t, "dormencia e reacao", Fold("dormência e reação"))
	require.Equal(t, "plain ascii", Fold("plain ascii"))
}

func TestTokenize_SplitsOnPunctuation(t *testing.T) {
	tokens := tokenize("qual a dose, de rifampicina/adulto")
	require.Equal(t, []string{"qual", "a", "dose", "de", "rifampicina", "adulto"}, tokens)
}

func TestTokenize_LongInputIsLinear(t *testing.T) {
	long := strings.Repeat("rifampicina dose ", 500)
	tokens := tokenize(Fold(Normalize(long)))
	require.Len(t, tokens, 1000)
}
