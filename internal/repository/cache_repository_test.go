package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

func TestCacheRepositoryWithoutClientMisses(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "dash:teacher:t1:stats", map[string]int{"testsCreated": 1}, time.Minute))

	var out map[string]int
	err := repo.Get(ctx, "dash:teacher:t1:stats", &out)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Nil(t, out)

	require.NoError(t, repo.Delete(ctx, "dash:teacher:t1:stats"))
	require.NoError(t, repo.Close())
}
