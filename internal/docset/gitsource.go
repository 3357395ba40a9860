package docset

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
)

// GitSource fetches a documentation tree from a git repository so navigation
// checks can run against a remote docs set.
type GitSource struct {
	URL          string
	Branch       string
	Token        string
	workspaceDir string
}

// NewGitSource creates a git source rooted in the given workspace directory.
func NewGitSource(url, branch, token, workspaceDir string) *GitSource {
	if branch == "" {
		branch = "main"
	}
	return &GitSource{URL: url, Branch: branch, Token: token, workspaceDir: workspaceDir}
}

// Fetch clones the repository, or pulls when a checkout already exists.
// It returns the checkout path.
func (g *GitSource) Fetch() (string, error) {
	checkout := filepath.Join(g.workspaceDir, "docs-source")

	if _, err := os.Stat(filepath.Join(checkout, ".git")); err == nil {
		return g.update(checkout)
	}
	return g.clone(checkout)
}

func (g *GitSource) clone(checkout string) (string, error) {
	slog.Debug("Cloning docs repository", "url", g.URL, "branch", g.Branch, "path", checkout)

	if err := os.RemoveAll(checkout); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to clear checkout directory").
			WithContext("path", checkout).Build()
	}

	opts := &git.CloneOptions{
		URL:           g.URL,
		ReferenceName: plumbing.ReferenceName("refs/heads/" + g.Branch),
		SingleBranch:  true,
		Depth:         1,
	}
	if g.Token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "token", Password: g.Token}
	}

	repo, err := git.PlainClone(checkout, false, opts)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryGit, "failed to clone docs repository").
			WithContext("url", g.URL).Build()
	}

	if ref, herr := repo.Head(); herr == nil {
		slog.Info("Docs repository cloned", "url", g.URL, "commit", ref.Hash().String()[:8])
	} else {
		slog.Info("Docs repository cloned", "url", g.URL)
	}
	return checkout, nil
}

func (g *GitSource) update(checkout string) (string, error) {
	slog.Debug("Updating docs repository", "path", checkout)

	repo, err := git.PlainOpen(checkout)
	if err != nil {
		return g.clone(checkout)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryGit, "failed to open worktree").
			WithContext("path", checkout).Build()
	}

	pullOpts := &git.PullOptions{
		ReferenceName: plumbing.ReferenceName("refs/heads/" + g.Branch),
		SingleBranch:  true,
	}
	if g.Token != "" {
		pullOpts.Auth = &githttp.BasicAuth{Username: "token", Password: g.Token}
	}

	if err := worktree.Pull(pullOpts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", ferrors.WrapError(err, ferrors.CategoryGit, "failed to pull docs repository").
			WithContext("url", g.URL).Build()
	}
	return checkout, nil
}
