package verify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractTextFromStream(t *testing.T) {
	t.Parallel()

	stream := []byte(`BT
/F1 12 Tf
72 720 Td
(Structural Fatigue in) Tj
0 -14 Td
(Composite Panels) Tj
ET`)
	text := extractTextFromStream(stream)
	require.Equal(t, "Structural Fatigue in Composite Panels", text)
}

func TestExtractTextFromStreamTJArray(t *testing.T) {
	t.Parallel()

	stream := []byte(`BT
[(Fitting) -250 (factors) -250 (apply)] TJ
ET`)
	text := extractTextFromStream(stream)
	require.Equal(t, "Fittingfactorsapply", text)
}

func TestExtractTextFromStreamEmpty(t *testing.T) {
	t.Parallel()

	// An image-only page has drawing operators but no show-text strings.
	stream := []byte(`q
612 0 0 792 0 0 cm
/Im1 Do
Q`)
	require.Empty(t, extractTextFromStream(stream))
}

func TestDecodePDFString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a(b)c", decodePDFString([]byte(`a\(b\)c`)))
	require.Equal(t, "tab\there", decodePDFString([]byte(`tab\there`)))
	require.Equal(t, " ", decodePDFString([]byte(`\040`)))
	require.Equal(t, `back\slash`, decodePDFString([]byte(`back\\slash`)))
}

func TestPrintableRatio(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 1.0, printableRatio("perfectly normal text"), 0.001)
	require.InDelta(t, 1.0, printableRatio(""), 0.001)

	// Private Use Area runes are what broken font maps decode to.
	garbage := string([]rune{0xE001, 0xE002, 0xE003, 0xE004, 'a'})
	require.Less(t, printableRatio(garbage), 0.85)
}

func TestCleanExtractedText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a b c", cleanExtractedText("  a \n\n b\t\tc  "))
	require.Equal(t, "", cleanExtractedText("\x00\x01\x02"))
}
