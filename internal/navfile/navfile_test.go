package navfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleNav = `<!--
Copyright 2021 Yuan He (KRR-Oxford). All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
-->

- [About](index.md)
<!-- - [About](script.md) -->
- [BERTMap](bertmap.md)
- [OM Resources](om_resources.md)
- [Reasoning](reasoning.md)
<!-- - [Data Structures](data_structures.md) -->
- [API](deeponto.html)
`

func TestParse_SampleNav_ExtractsActiveEntriesInOrder(t *testing.T) {
	doc, err := Parse([]byte(sampleNav))
	require.NoError(t, err)
	require.True(t, doc.HasHeader())

	active := doc.ActiveEntries()
	require.Len(t, active, 5)

	labels := make([]string, 0, len(active))
	for _, e := range active {
		labels = append(labels, e.Label)
	}
	require.Equal(t, []string{"About", "BERTMap", "OM Resources", "Reasoning", "API"}, labels)

	require.Equal(t, "index.md", active[0].Target)
	require.Equal(t, "deeponto.html", active[4].Target)
}

func TestParse_SampleNav_CommentedEntriesAreDisabled(t *testing.T) {
	doc, err := Parse([]byte(sampleNav))
	require.NoError(t, err)

	disabled := doc.DisabledEntries()
	require.Len(t, disabled, 2)
	require.Equal(t, "About", disabled[0].Label)
	require.Equal(t, "script.md", disabled[0].Target)
	require.Equal(t, "Data Structures", disabled[1].Label)
	require.Equal(t, "data_structures.md", disabled[1].Target)

	for _, e := range disabled {
		require.True(t, e.Disabled)
	}
}

func TestParse_SampleNav_RoundTripReproducesInput(t *testing.T) {
	doc, err := Parse([]byte(sampleNav))
	require.NoError(t, err)
	require.Equal(t, []byte(sampleNav), doc.Render())
}

func TestParse_NoHeader_BodyIsFullInput(t *testing.T) {
	input := []byte("- [About](index.md)\n")

	doc, err := Parse(input)
	require.NoError(t, err)
	require.False(t, doc.HasHeader())
	require.Equal(t, input, doc.Body)
	require.Len(t, doc.ActiveEntries(), 1)
}

func TestParse_EmptyDocument_NoEntries(t *testing.T) {
	doc, err := Parse([]byte(""))
	require.NoError(t, err)
	require.Empty(t, doc.Entries)
	require.False(t, doc.HasHeader())
}

func TestParse_CommentWithoutEntry_IsIgnored(t *testing.T) {
	input := []byte("- [About](index.md)\n<!-- just a note, not an entry -->\n")

	doc, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	require.Empty(t, doc.DisabledEntries())
}

func TestParse_CommentIndentedUnderEntry_IsDisabled(t *testing.T) {
	input := []byte("- [About](index.md)\n  <!-- - [Old](old.md) -->\n- [API](deeponto.html)\n")

	doc, err := Parse(input)
	require.NoError(t, err)

	active := doc.ActiveEntries()
	require.Len(t, active, 2)
	require.Equal(t, "About", active[0].Label)
	require.Equal(t, "API", active[1].Label)

	disabled := doc.DisabledEntries()
	require.Len(t, disabled, 1)
	require.Equal(t, "Old", disabled[0].Label)
	require.Equal(t, "old.md", disabled[0].Target)
	require.Equal(t, 2, disabled[0].Line)
}

func TestParse_LeadingDisabledEntry_IsNotAHeader(t *testing.T) {
	input := []byte("<!-- - [Old](old.md) -->\n- [About](index.md)\n")

	doc, err := Parse(input)
	require.NoError(t, err)
	require.False(t, doc.HasHeader())
	require.Equal(t, input, doc.Render())

	active := doc.ActiveEntries()
	require.Len(t, active, 1)
	require.Equal(t, "About", active[0].Label)

	disabled := doc.DisabledEntries()
	require.Len(t, disabled, 1)
	require.Equal(t, "Old", disabled[0].Label)
}

func TestParse_EntryWithEmptyTarget_IsRecorded(t *testing.T) {
	doc, err := Parse([]byte("- [Broken]()\n"))
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	require.Equal(t, "Broken", doc.Entries[0].Label)
	require.Empty(t, doc.Entries[0].Target)
}

func TestParse_CRLF_DetectsStyleAndRoundTrips(t *testing.T) {
	input := []byte("- [About](index.md)\r\n- [API](deeponto.html)\r\n")

	doc, err := Parse(input)
	require.NoError(t, err)
	require.Equal(t, "\r\n", doc.Style.Newline)
	require.Equal(t, input, doc.Render())
	require.Len(t, doc.ActiveEntries(), 2)
}

func TestParse_LineNumbers_AreDocumentRelative(t *testing.T) {
	doc, err := Parse([]byte(sampleNav))
	require.NoError(t, err)

	active := doc.ActiveEntries()
	require.Equal(t, 8, active[0].Line)

	// Entries appear strictly top to bottom.
	last := 0
	for _, e := range doc.Entries {
		require.Greater(t, e.Line, last)
		last = e.Line
	}
}

func TestFingerprint_ChangesWithBodyAndHeader(t *testing.T) {
	doc, err := Parse([]byte(sampleNav))
	require.NoError(t, err)

	same, err := Parse([]byte(sampleNav))
	require.NoError(t, err)
	require.Equal(t, doc.Fingerprint(), same.Fingerprint())

	edited, err := Parse([]byte(strings.Replace(sampleNav, "bertmap.md", "bertmap2.md", 1)))
	require.NoError(t, err)
	require.NotEqual(t, doc.Fingerprint(), edited.Fingerprint())

	headerEdited, err := Parse([]byte(strings.Replace(sampleNav, "2021", "2022", 1)))
	require.NoError(t, err)
	require.NotEqual(t, doc.HeaderFingerprint(), headerEdited.HeaderFingerprint())
}
