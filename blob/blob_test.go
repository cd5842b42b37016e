package blob_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/dperf/blob"
)

func TestStore_local(t *testing.T) {
	var (
		s    blob.Store
		ctx  = context.Background()
		path = filepath.Join(t.TempDir(), "goldens.txt")
	)

	require.NoError(t, s.WriteFile(ctx, path, []byte("ok\n[EMPTY]\n")))

	data, err := s.ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "ok\n[EMPTY]\n", string(data))

	_, err = s.ReadFile(ctx, filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "missing.txt")

	err = s.WriteFile(ctx, filepath.Join(t.TempDir(), "no", "such", "dir.txt"), nil)
	assert.Error(t, err)
}
