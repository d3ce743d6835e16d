package loader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/gqlwire/errors"
)

func constant(v string) *Loader {
	return New(func(_ context.Context, keys []string) ([]any, error) {
		values := make([]any, len(keys))
		for i := range keys {
			values[i] = v
		}
		return values, nil
	})
}

func TestRepository_LastRegistrationWins(t *testing.T) {
	repo := NewRepository(Defaults{}, nil)

	replaced, err := repo.Register("userLoader", constant("first"))
	require.NoError(t, err)
	assert.False(t, replaced)

	replaced, err = repo.Register("userLoader", constant("second"))
	require.NoError(t, err)
	assert.True(t, replaced)

	assert.Equal(t, 1, repo.Len())
	assert.Equal(t, []string{"userLoader"}, repo.Names())

	th, err := repo.NewScope().Load(context.Background(), "userLoader", "42")
	require.NoError(t, err)
	value, err := th()
	require.NoError(t, err)
	assert.Equal(t, "second", value)
}

func TestRepository_Validation(t *testing.T) {
	repo := NewRepository(Defaults{}, nil)

	_, err := repo.Register("", constant("x"))
	assert.ErrorIs(t, err, errors.ErrInvalidData)

	_, err = repo.Register("nil", nil)
	assert.ErrorIs(t, err, errors.ErrInvalidData)

	_, err = repo.Register("empty", New(nil))
	assert.ErrorIs(t, err, errors.ErrInvalidData)

	assert.Equal(t, 0, repo.Len())
}

func TestRepository_Sealed(t *testing.T) {
	repo := NewRepository(Defaults{}, nil)
	_, err := repo.Register("a", constant("a"))
	require.NoError(t, err)

	repo.Seal()
	assert.True(t, repo.Sealed())

	_, err = repo.Register("b", constant("b"))
	assert.ErrorIs(t, err, errors.ErrRegistrySealed)

	_, ok := repo.Get("a")
	assert.True(t, ok)
}

func TestRepository_Defaults(t *testing.T) {
	repo := NewRepository(Defaults{Wait: 5 * time.Millisecond, BatchCapacity: 10, CacheSize: 50}, nil)

	_, err := repo.Register("plain", constant("x"))
	require.NoError(t, err)
	_, err = repo.Register("tuned", New(constant("y").batch, WithWait(time.Millisecond), WithCacheSize(-1)))
	require.NoError(t, err)

	plain, _ := repo.Get("plain")
	assert.Equal(t, 5*time.Millisecond, plain.Wait())
	assert.Equal(t, 10, plain.BatchCapacity())
	assert.Equal(t, 50, plain.CacheSize())

	tuned, _ := repo.Get("tuned")
	assert.Equal(t, time.Millisecond, tuned.Wait())
	assert.Equal(t, 10, tuned.BatchCapacity())
	assert.Equal(t, -1, tuned.CacheSize())

	bare := NewRepository(Defaults{}, nil)
	_, err = bare.Register("x", constant("x"))
	require.NoError(t, err)
	x, _ := bare.Get("x")
	assert.Equal(t, DefaultWait, x.Wait())
}
