// Package navfile parses and re-serializes documentation navigation documents.
//
// A navigation document is a UTF-8 markdown file with an optional leading HTML
// comment block (the license notice) followed by an unordered list of links.
// List items are either live entries (`- [Label](target)`) or disabled entries
// wrapped in HTML comments (`<!-- - [Label](target) -->`). Disabled entries are
// parsed but never rendered.
package navfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
)

const (
	commentOpen  = "<!--"
	commentClose = "-->"
)

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline/trailing newline shape and does not
// attempt to preserve markdown formatting beyond byte-faithful round-trips.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Entry is a single navigation item in document order.
type Entry struct {
	Label    string
	Target   string
	Disabled bool
	Line     int // 1-based line in the source document
}

// Document is a parsed navigation file.
//
// Header holds the raw leading HTML comment block (license notice) including
// its delimiters; Body holds everything after it. Render reassembles the two,
// so Parse followed by Render reproduces the input bytes exactly.
type Document struct {
	Header  []byte
	Body    []byte
	Entries []Entry
	Style   Style
}

// ParseFile reads and parses a navigation document from disk.
func ParseFile(path string) (*Document, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read navigation file").
			WithContext("path", path).Build()
	}
	return Parse(content)
}

// Parse parses a navigation document.
//
// A missing header is not an error; Header is empty and Body is the full input.
// A leading comment whose interior is itself a navigation entry is treated as
// a disabled entry, not as a header.
func Parse(content []byte) (*Document, error) {
	doc := &Document{Style: detectStyle(content)}

	header, body := splitHeader(content)
	doc.Header = header
	doc.Body = body

	headerLines := bytes.Count(header, []byte("\n"))

	entries, err := parseEntries(body, headerLines)
	if err != nil {
		return nil, err
	}
	doc.Entries = entries

	return doc, nil
}

// Render reassembles the document into its original byte form.
func (d *Document) Render() []byte {
	out := make([]byte, 0, len(d.Header)+len(d.Body))
	out = append(out, d.Header...)
	out = append(out, d.Body...)
	return out
}

// ActiveEntries returns the live entries in document order.
func (d *Document) ActiveEntries() []Entry {
	return d.filter(false)
}

// DisabledEntries returns the commented-out entries in document order.
func (d *Document) DisabledEntries() []Entry {
	return d.filter(true)
}

func (d *Document) filter(disabled bool) []Entry {
	entries := make([]Entry, 0, len(d.Entries))
	for _, e := range d.Entries {
		if e.Disabled == disabled {
			entries = append(entries, e)
		}
	}
	return entries
}

// HasHeader reports whether the document carries a leading comment block.
func (d *Document) HasHeader() bool {
	return len(d.Header) > 0
}

// splitHeader separates a leading HTML comment block from the rest of the file.
//
// The header includes the comment delimiters and the newline that terminates
// the block, so Header+Body always reproduces the input.
func splitHeader(content []byte) (header, body []byte) {
	trimmed := bytes.TrimLeft(content, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte(commentOpen)) {
		return nil, content
	}

	end := bytes.Index(content, []byte(commentClose))
	if end < 0 {
		return nil, content
	}

	// A comment holding list entries is a disabled entry, not a license
	// notice; leave it in the body so the entry parser sees it.
	if bytes.Contains(content[:end], []byte("- [")) {
		return nil, content
	}

	cut := end + len(commentClose)
	// Include the newline(s) that close the header block.
	for cut < len(content) && (content[cut] == '\n' || content[cut] == '\r') {
		cut++
	}
	return content[:cut], content[cut:]
}

// parseEntries extracts live and disabled entries from the markdown body.
func parseEntries(body []byte, lineOffset int) ([]Entry, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var entries []Entry
	err := gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.ListItem:
			entry, ok := entryFromListItem(node, body, lineOffset)
			if ok {
				entries = append(entries, entry)
			}
			entries = append(entries, nestedCommentEntries(node, body, lineOffset)...)
			return gmast.WalkSkipChildren, nil
		case *gmast.HTMLBlock:
			disabled := entriesFromComment(node, body, lineOffset)
			entries = append(entries, disabled...)
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNav, "failed to walk navigation markdown").Build()
	}

	return entries, nil
}

// entryFromListItem extracts the first link of a list item as a live entry.
func entryFromListItem(item *gmast.ListItem, source []byte, lineOffset int) (Entry, bool) {
	var link *gmast.Link
	_ = gmast.Walk(item, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if l, ok := n.(*gmast.Link); ok && link == nil {
			link = l
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	if link == nil {
		return Entry{}, false
	}

	return Entry{
		Label:  nodeText(link, source),
		Target: string(link.Destination),
		Line:   lineOf(item, source) + lineOffset,
	}, true
}

// nestedCommentEntries recovers disabled entries from comments written as
// list-item continuation text. Such comments are indented under a live entry,
// so goldmark parses them as inline raw HTML instead of an HTML block.
func nestedCommentEntries(item *gmast.ListItem, source []byte, lineOffset int) []Entry {
	var entries []Entry
	_ = gmast.Walk(item, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		raw, ok := n.(*gmast.RawHTML)
		if !ok {
			return gmast.WalkContinue, nil
		}

		var sb strings.Builder
		for i := 0; i < raw.Segments.Len(); i++ {
			seg := raw.Segments.At(i)
			sb.Write(seg.Value(source))
		}
		interior, ok := commentInterior(sb.String())
		if !ok {
			return gmast.WalkContinue, nil
		}

		inner, err := parseEntries([]byte(interior), 0)
		if err != nil || len(inner) == 0 {
			return gmast.WalkContinue, nil
		}

		line := lineOffset
		if raw.Segments.Len() > 0 {
			line = lineAtOffset(source, raw.Segments.At(0).Start) + lineOffset
		}
		for _, e := range inner {
			e.Disabled = true
			e.Line = line
			entries = append(entries, e)
		}
		return gmast.WalkContinue, nil
	})
	return entries
}

// entriesFromComment re-parses the interior of an HTML comment block and
// returns any navigation entries it contains, marked disabled.
func entriesFromComment(block *gmast.HTMLBlock, source []byte, lineOffset int) []Entry {
	raw, firstLine := rawLines(block, source)

	interior, ok := commentInterior(raw)
	if !ok {
		return nil
	}

	inner, err := parseEntries([]byte(interior), 0)
	if err != nil || len(inner) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(inner))
	for _, e := range inner {
		e.Disabled = true
		e.Line = firstLine + lineOffset
		entries = append(entries, e)
	}
	return entries
}

// rawLines concatenates the raw source lines of a block node and returns the
// 1-based line number of the first one.
func rawLines(n gmast.Node, source []byte) (string, int) {
	lines := n.Lines()
	if lines.Len() == 0 {
		return "", 1
	}

	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	first := lines.At(0)
	return sb.String(), lineAtOffset(source, first.Start)
}

// commentInterior strips the HTML comment delimiters from a raw block.
func commentInterior(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, commentOpen) {
		return "", false
	}
	trimmed = strings.TrimPrefix(trimmed, commentOpen)
	if idx := strings.LastIndex(trimmed, commentClose); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed), true
}

// nodeText collects the plain text of a node's children.
func nodeText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*gmast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// lineOf returns the 1-based source line of the first raw line under a node.
func lineOf(n gmast.Node, source []byte) int {
	if n.Lines().Len() > 0 {
		return lineAtOffset(source, n.Lines().At(0).Start)
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if line := lineOf(c, source); line > 0 {
			return line
		}
	}
	return 0
}

func lineAtOffset(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	hasTrailingNewline := len(content) > 0 && (content[len(content)-1] == '\n')

	return Style{
		Newline:            newline,
		HasTrailingNewline: hasTrailingNewline,
	}
}
