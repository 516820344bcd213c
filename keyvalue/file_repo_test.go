package keyvalue_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-invoice-client/keyvalue"
)

func TestFileRepoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	repo, err := keyvalue.NewFileRepo(path)
	require.NoError(t, err)

	_, found, err := repo.Get("token")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, repo.Set("token", "T1"))
	value, found, err := repo.Get("token")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "T1", value)

	require.NoError(t, repo.Remove("token"))
	_, found, err = repo.Get("token")
	require.NoError(t, err)
	require.False(t, found)
}

func TestFileRepoPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	repo, err := keyvalue.NewFileRepo(path)
	require.NoError(t, err)
	require.NoError(t, repo.Set("token", "T1"))
	require.NoError(t, repo.Set("user", `{"id":1}`))

	reopened, err := keyvalue.NewFileRepo(path)
	require.NoError(t, err)

	value, found, err := reopened.Get("token")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "T1", value)

	value, found, err = reopened.Get("user")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `{"id":1}`, value)
}

func TestFileRepoCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")

	repo, err := keyvalue.NewFileRepo(path)
	require.NoError(t, err)
	require.NoError(t, repo.Set("token", "T1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileRepoRemovingAbsentKeyIsNotAnError(t *testing.T) {
	repo, err := keyvalue.NewFileRepo(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	require.NoError(t, repo.Remove("never-set"))
}

func TestFileRepoRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := keyvalue.NewFileRepo(path)
	require.Error(t, err)
}
