package admission

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jthickma/webapp/internal/core/storage"
	"github.com/jthickma/webapp/internal/core/util"
)

type failingCounter struct{}

func (failingCounter) CountJobDirs() (int, error) { return 0, errors.New("eio") }

func TestTryAdmitCeiling(t *testing.T) {
	store, err := storage.NewLocalProvider(filepath.Join(t.TempDir(), "downloads"))
	require.NoError(t, err)
	require.NoError(t, store.EnsureRoot())

	c := NewController(store, 0)
	assert.Equal(t, DefaultCeiling, c.Ceiling())

	var tokens []string
	for i := 0; i < DefaultCeiling; i++ {
		assert.True(t, c.TryAdmit(), "slot %d", i)
		token := util.NewToken()
		_, err := store.CreateJobDir(token)
		require.NoError(t, err)
		tokens = append(tokens, token)
	}

	assert.False(t, c.TryAdmit())
	assert.Equal(t, DefaultCeiling, c.Active())

	require.NoError(t, store.RemoveJobDir(tokens[0]))
	assert.True(t, c.TryAdmit())
}

func TestTryAdmitListingFailureRejects(t *testing.T) {
	c := NewController(failingCounter{}, 3)
	assert.False(t, c.TryAdmit())
	assert.Equal(t, -1, c.Active())
}
