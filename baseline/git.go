package baseline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ZaguanLabs/locsync"
	"github.com/ZaguanLabs/locsync/store"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// DefaultRevision is the revision read when none is configured.
const DefaultRevision = "HEAD"

// Git reads the baseline from version control: the previous source document
// is the file as committed at a revision. History advances when the user
// commits, so Git does not implement Recorder.
type Git struct {
	rev  string
	open func(sourcePath string) (*git.Repository, string, error)
}

// NewGit discovers the repository containing each source file on disk.
func NewGit(rev string) *Git {
	return &Git{rev: orHead(rev), open: openContaining}
}

// NewGitRepository reads from an already opened repository. Source paths are
// taken relative to its worktree root.
func NewGitRepository(repo *git.Repository, rev string) *Git {
	return &Git{
		rev: orHead(rev),
		open: func(sourcePath string) (*git.Repository, string, error) {
			return repo, filepath.ToSlash(filepath.Clean(sourcePath)), nil
		},
	}
}

// Revision returns the revision the baseline is read from.
func (g *Git) Revision() string {
	return g.rev
}

// Previous implements Provider. A repository without commits, or a file that
// does not exist at the revision, yields an empty tree.
func (g *Git) Previous(ctx context.Context, sourcePath string) (*locsync.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	codec, err := store.CodecFor(sourcePath)
	if err != nil {
		return nil, err
	}

	repo, rel, err := g.open(sourcePath)
	if err != nil {
		return nil, err
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(g.rev))
	if errors.Is(err, plumbing.ErrReferenceNotFound) && g.rev == DefaultRevision && unborn(repo) {
		return locsync.NewNode(), nil
	}
	if err != nil {
		return nil, &locsync.ConfigurationError{Message: fmt.Sprintf("resolving revision %q", g.rev), Cause: err}
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", hash, err)
	}

	file, err := commit.File(rel)
	if errors.Is(err, object.ErrFileNotFound) {
		return locsync.NewNode(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s at %s: %w", rel, g.rev, err)
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("reading %s at %s: %w", rel, g.rev, err)
	}

	n, err := codec.Decode([]byte(contents))
	if err != nil {
		return nil, &locsync.SerializationError{Path: rel + "@" + g.rev, Cause: err}
	}
	return n, nil
}

func unborn(repo *git.Repository) bool {
	_, err := repo.Head()
	return errors.Is(err, plumbing.ErrReferenceNotFound)
}

// openContaining opens the repository that contains sourcePath and returns
// the path of the file relative to the worktree root.
func openContaining(sourcePath string) (*git.Repository, string, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, "", err
	}
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(resolved, filepath.Base(abs))
	}

	repo, err := git.PlainOpenWithOptions(filepath.Dir(abs), &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, "", &locsync.ConfigurationError{Message: "git baseline needs the source inside a repository", Cause: err}
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, "", &locsync.ConfigurationError{Message: "git baseline needs a worktree", Cause: err}
	}

	rel, err := filepath.Rel(wt.Filesystem.Root(), abs)
	if err != nil {
		return nil, "", err
	}
	return repo, filepath.ToSlash(rel), nil
}

func orHead(rev string) string {
	if rev == "" {
		return DefaultRevision
	}
	return rev
}

var _ Provider = (*Git)(nil)
