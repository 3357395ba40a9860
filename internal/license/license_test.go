package license

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
	"github.com/KRR-Oxford/docnav/internal/navfile"
)

func navWithHeader(t *testing.T, header string) *navfile.Document {
	t.Helper()
	doc, err := navfile.Parse([]byte(header + "\n- [About](index.md)\n"))
	require.NoError(t, err)
	return doc
}

func TestVerify_CanonicalHeader_Passes(t *testing.T) {
	doc := navWithHeader(t, Header("\n"))
	require.NoError(t, Verify(doc))
}

func TestVerify_MissingHeader_Fails(t *testing.T) {
	doc, err := navfile.Parse([]byte("- [About](index.md)\n"))
	require.NoError(t, err)

	err = Verify(doc)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryLicense))
}

func TestVerify_ModifiedHeader_Fails(t *testing.T) {
	modified := strings.Replace(Header("\n"), "2021", "2019", 1)
	doc := navWithHeader(t, modified)

	err := Verify(doc)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryLicense))
}

func TestVerify_WhitespaceVariations_StillPass(t *testing.T) {
	// Indent every notice line; line-level trimming should absorb it.
	var sb strings.Builder
	sb.WriteString("<!--\n")
	for _, line := range strings.Split(Notice, "\n") {
		sb.WriteString("   " + line + "\n")
	}
	sb.WriteString("-->\n")

	doc := navWithHeader(t, sb.String())
	require.NoError(t, Verify(doc))
}

func TestVerifyAgainst_CustomNotice(t *testing.T) {
	doc := navWithHeader(t, "<!--\nInternal draft. Do not publish.\n-->\n")
	require.NoError(t, VerifyAgainst(doc, "Internal draft. Do not publish."))
	require.Error(t, VerifyAgainst(doc, "A different notice."))
}
