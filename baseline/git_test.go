package baseline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZaguanLabs/locsync"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, repo *git.Repository, fs billy.Filesystem, name, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Dev", Email: "dev@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func memoryRepo(t *testing.T) (*git.Repository, billy.Filesystem) {
	t.Helper()
	fs := memfs.New()
	repo, err := git.Init(memory.NewStorage(), fs)
	require.NoError(t, err)
	return repo, fs
}

func TestGit_UnbornHeadIsEmpty(t *testing.T) {
	repo, _ := memoryRepo(t)

	prev, err := NewGitRepository(repo, "").Previous(context.Background(), "locales/en.json")
	require.NoError(t, err)
	assert.Equal(t, 0, prev.Len())
}

func TestGit_ReadsCommittedVersion(t *testing.T) {
	repo, fs := memoryRepo(t)
	commitFile(t, repo, fs, "locales/en.json", `{"title": "Hello", "menu": {"file": "File"}}`)

	// Uncommitted edits are not part of the baseline.
	require.NoError(t, util.WriteFile(fs, "locales/en.json", []byte(`{"title": "Hi"}`), 0o644))

	prev, err := NewGitRepository(repo, "").Previous(context.Background(), "locales/en.json")
	require.NoError(t, err)
	assert.True(t, locsync.Equal(locsync.FromMap(map[string]any{
		"title": "Hello",
		"menu":  map[string]any{"file": "File"},
	}), prev))
	assert.Equal(t, []string{"title", "menu"}, prev.Keys())
}

func TestGit_Revision(t *testing.T) {
	repo, fs := memoryRepo(t)
	commitFile(t, repo, fs, "en.yaml", "title: First\n")
	commitFile(t, repo, fs, "en.yaml", "title: Second\n")

	prev, err := NewGitRepository(repo, "HEAD~1").Previous(context.Background(), "en.yaml")
	require.NoError(t, err)
	v, _ := prev.Get("title")
	assert.Equal(t, locsync.Leaf("First"), v)

	prev, err = NewGitRepository(repo, "HEAD").Previous(context.Background(), "en.yaml")
	require.NoError(t, err)
	v, _ = prev.Get("title")
	assert.Equal(t, locsync.Leaf("Second"), v)
}

func TestGit_FileMissingAtRevision(t *testing.T) {
	repo, fs := memoryRepo(t)
	commitFile(t, repo, fs, "README.md", "docs")

	prev, err := NewGitRepository(repo, "").Previous(context.Background(), "locales/en.json")
	require.NoError(t, err)
	assert.Equal(t, 0, prev.Len())
}

func TestGit_UnknownRevision(t *testing.T) {
	repo, fs := memoryRepo(t)
	commitFile(t, repo, fs, "en.json", `{}`)

	_, err := NewGitRepository(repo, "release-9").Previous(context.Background(), "en.json")
	assert.True(t, locsync.IsConfigurationError(err))
}

func TestGit_MalformedCommittedFile(t *testing.T) {
	repo, fs := memoryRepo(t)
	commitFile(t, repo, fs, "en.json", `{"title": `)

	_, err := NewGitRepository(repo, "").Previous(context.Background(), "en.json")
	var serr *locsync.SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "en.json@HEAD", serr.Path)
}

func TestGit_UnsupportedExtension(t *testing.T) {
	repo, _ := memoryRepo(t)

	_, err := NewGitRepository(repo, "").Previous(context.Background(), "strings.xml")
	assert.True(t, locsync.IsConfigurationError(err))
}

func TestGit_DiscoversRepositoryOnDisk(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "locales"), 0o755))
	source := filepath.Join(dir, "locales", "en.json")
	require.NoError(t, os.WriteFile(source, []byte(`{"greeting": "Hello"}`), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("locales/en.json")
	require.NoError(t, err)
	_, err = wt.Commit("add source", &git.CommitOptions{
		Author: &object.Signature{Name: "Dev", Email: "dev@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	prev, err := NewGit("").Previous(context.Background(), source)
	require.NoError(t, err)
	v, ok := prev.Get("greeting")
	require.True(t, ok)
	assert.Equal(t, locsync.Leaf("Hello"), v)
}

func TestGit_OutsideRepository(t *testing.T) {
	source := filepath.Join(t.TempDir(), "en.json")

	_, err := NewGit("").Previous(context.Background(), source)
	assert.True(t, locsync.IsConfigurationError(err))
}
