// Package docset discovers the documentation pages a navigation document may
// reference and answers target-resolution queries against them.
package docset

import (
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
)

// Page represents a discovered documentation page.
type Page struct {
	Path         string // Absolute path to the file
	RelativePath string // Path relative to the docs directory, slash-separated
	Name         string // File name without extension
	Extension    string // File extension including the dot
	Slug         string // Normalized relative path used for resolution
}

// Set is the collection of pages under a docs directory.
type Set struct {
	root  string
	pages []Page
	slugs map[string]Page
}

// pageExtensions are the file types that count as documentation pages.
var pageExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
}

// Discover walks the docs directory and collects all documentation pages.
func Discover(root string) (*Set, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDocs, "docs directory not found").
			WithContext("path", root).Build()
	}
	if !info.IsDir() {
		return nil, ferrors.DocsError("docs path is not a directory").
			WithContext("path", root).Build()
	}

	set := &Set{root: root, slugs: make(map[string]Page)}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories (".git", ".obsidian", ...) are never pages.
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !pageExtensions[ext] {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		page := Page{
			Path:         p,
			RelativePath: rel,
			Name:         strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			Extension:    ext,
			Slug:         Slug(rel),
		}
		set.pages = append(set.pages, page)
		set.slugs[page.Slug] = page
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDocs, "failed to walk docs directory").
			WithContext("path", root).Build()
	}

	slog.Debug("Documentation pages discovered", "root", root, "pages", len(set.pages))
	return set, nil
}

// Pages returns all discovered pages.
func (s *Set) Pages() []Page {
	return s.pages
}

// Root returns the docs directory the set was discovered from.
func (s *Set) Root() string {
	return s.root
}

// Resolve reports whether a navigation target names an existing page.
//
// Targets are resolved relative to the docs root. Fragments and query strings
// are ignored; `target`, `target.md` and `target/index.md` are all accepted,
// matching the conventions of markdown site generators.
func (s *Set) Resolve(target string) bool {
	_, ok := s.Lookup(target)
	return ok
}

// Lookup resolves a navigation target to its page.
func (s *Set) Lookup(target string) (Page, bool) {
	cleaned, ok := normalizeTarget(target)
	if !ok {
		return Page{}, false
	}

	candidates := []string{
		cleaned,
		cleaned + ".md",
		path.Join(cleaned, "index.md"),
		path.Join(cleaned, "README.md"),
	}
	for _, candidate := range candidates {
		if page, exists := s.slugs[Slug(candidate)]; exists {
			return page, true
		}
	}
	return Page{}, false
}

// IsExternal reports whether a navigation target points outside the docs set.
func IsExternal(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme != "" || u.Host != ""
}

// normalizeTarget strips fragments/queries and cleans the path. It returns
// false for targets that cannot name a local page (external URLs, absolute
// paths escaping the docs root, pure fragments).
func normalizeTarget(target string) (string, bool) {
	if target == "" || strings.HasPrefix(target, "#") {
		return "", false
	}
	if IsExternal(target) {
		return "", false
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", false
	}

	cleaned := path.Clean(strings.TrimPrefix(u.Path, "/"))
	if cleaned == "." || cleaned == "" || strings.HasPrefix(cleaned, "..") {
		return "", false
	}
	return cleaned, true
}
