package lock

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	locker := NewLocker(nil)

	t.Run("run check", func(t *testing.T) {
		ran, err := locker.TryRun(context.Background(), "task-a", time.Minute, func() error { return nil })
		require.NoError(t, err)
		require.True(t, ran)
	})
	t.Run("busy key check", func(t *testing.T) {
		inner := false
		ran, err := locker.TryRun(context.Background(), "task-b", time.Minute, func() error {
			var innerErr error
			inner, innerErr = locker.TryRun(context.Background(), "task-b", time.Minute, func() error { return nil })
			return innerErr
		})
		require.NoError(t, err)
		require.True(t, ran)
		require.False(t, inner)
	})
	t.Run("released after error check", func(t *testing.T) {
		ran, err := locker.TryRun(context.Background(), "task-c", time.Minute, func() error { return errors.New("fail") })
		require.Error(t, err)
		require.True(t, ran)

		ran, err = locker.TryRun(context.Background(), "task-c", time.Minute, func() error { return nil })
		require.NoError(t, err)
		require.True(t, ran)
	})
}

func TestWithDelay(t *testing.T) {
	t.Run("timeout check", func(t *testing.T) {
		lockMap.Store("busy", true)
		defer lockMap.Delete("busy")

		success, err := WithDelay(context.Background(), "busy", 100*time.Millisecond, func() error { return nil })
		require.NoError(t, err)
		require.False(t, success)
	})
}
