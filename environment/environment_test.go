package environment

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/sharegate/access"
	"github.com/moyoez/sharegate/types"
)

type staticLookup map[string]string

func (l staticLookup) SourcePath(_ context.Context, sourceID string) (string, bool, error) {
	p, ok := l[sourceID]
	return p, ok, nil
}

type failingLookup struct{}

func (failingLookup) SourcePath(context.Context, string) (string, bool, error) {
	return "", false, errors.New("db closed")
}

func validatedShare(t *testing.T, itemType types.ItemType, target string) *access.ValidatedShare {
	t.Helper()
	share, err := access.ValidateShare(&types.ShareRecord{
		ShareID:    "s1",
		Token:      "tok",
		ItemType:   itemType,
		OwnerID:    "u1",
		SourceID:   "f1",
		ShareType:  types.ShareTypeLink,
		FileTarget: target,
	})
	require.NoError(t, err)
	return share
}

func TestSetTokenBasedEnv(t *testing.T) {
	root := filepath.FromSlash("/srv/photos")
	env := New(staticLookup{"f1": root})
	require.NoError(t, env.SetTokenBasedEnv(context.Background(), validatedShare(t, types.ItemTypeFolder, "/Holidays")))

	assert.Equal(t, ModeToken, env.Mode())
	assert.True(t, env.IsTokenBased())
	assert.Equal(t, "u1", env.UserID())
	assert.Equal(t, root, env.RootPath())
	assert.Equal(t, "Holidays", env.SharedName())
}

func TestSetTokenBasedEnvMissingSource(t *testing.T) {
	env := New(staticLookup{})
	err := env.SetTokenBasedEnv(context.Background(), validatedShare(t, types.ItemTypeFolder, ""))
	assert.ErrorIs(t, err, ErrSourceMissing)
	assert.Equal(t, ModeUnset, env.Mode())

	err = New(failingLookup{}).SetTokenBasedEnv(context.Background(), validatedShare(t, types.ItemTypeFolder, ""))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSourceMissing)
}

func TestSetStandardEnv(t *testing.T) {
	env := New(staticLookup{})
	env.SetStandardEnv("owner")
	assert.Equal(t, ModeStandard, env.Mode())
	assert.Equal(t, "owner", env.UserID())

	_, err := env.Resolve("a.txt")
	assert.ErrorIs(t, err, ErrNotTokenBased)
}

var folderResolveTests = []struct {
	title string
	rel   string
	want  string
	err   error
}{
	{"Root", "", "/srv/photos", nil},
	{"Dot", ".", "/srv/photos", nil},
	{"Nested file", "2024/beach.jpg", "/srv/photos/2024/beach.jpg", nil},
	{"Leading slash", "/2024/beach.jpg", "/srv/photos/2024/beach.jpg", nil},
	{"Parent escape", "../secrets.txt", "", ErrOutsideShare},
	{"Nested escape", "2024/../../secrets.txt", "", ErrOutsideShare},
}

func TestResolveFolder(t *testing.T) {
	root := filepath.FromSlash("/srv/photos")
	env := New(staticLookup{"f1": root})
	require.NoError(t, env.SetTokenBasedEnv(context.Background(), validatedShare(t, types.ItemTypeFolder, "")))

	for _, tt := range folderResolveTests {
		t.Run(tt.title, func(t *testing.T) {
			got, err := env.Resolve(tt.rel)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestResolveFile(t *testing.T) {
	root := filepath.FromSlash("/srv/report.pdf")
	env := New(staticLookup{"f1": root})
	require.NoError(t, env.SetTokenBasedEnv(context.Background(), validatedShare(t, types.ItemTypeFile, "")))
	assert.Equal(t, "report.pdf", env.SharedName())

	got, err := env.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, root, got)

	got, err = env.Resolve("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, root, got)

	_, err = env.Resolve("other.pdf")
	assert.ErrorIs(t, err, ErrOutsideShare)
}

func TestOpenStaysInsideFolder(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "photos")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2024"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "2024", "beach.jpg"), []byte("jpg"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(base, "secrets.txt"), []byte("nope"), 0o600))
	if err := os.Symlink(filepath.Join(base, "secrets.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "2024", "beach.jpg"), filepath.Join(root, "inside.jpg")))

	env := New(staticLookup{"f1": root})
	require.NoError(t, env.SetTokenBasedEnv(context.Background(), validatedShare(t, types.ItemTypeFolder, "")))

	f, err := env.Open("2024/beach.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "jpg", string(data))
	require.NoError(t, f.Close())

	f, err = env.Open("inside.jpg")
	require.NoError(t, err, "links within the share are fine")
	require.NoError(t, f.Close())

	dir, err := env.Open("")
	require.NoError(t, err)
	entries, err := dir.ReadDir(-1)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	require.NoError(t, dir.Close())

	_, err = env.Open("link.txt")
	assert.Error(t, err)

	_, err = env.Open("../secrets.txt")
	assert.ErrorIs(t, err, ErrOutsideShare)
}

func TestOpenFileShare(t *testing.T) {
	file := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(file, []byte("pdf"), 0o600))
	env := New(staticLookup{"f1": file})
	require.NoError(t, env.SetTokenBasedEnv(context.Background(), validatedShare(t, types.ItemTypeFile, "")))

	f, err := env.Open("")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = env.Open("other.pdf")
	assert.ErrorIs(t, err, ErrOutsideShare)
}
