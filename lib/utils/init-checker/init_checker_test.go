package initchecker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type provider interface {
	Name() string
}

type impl struct{}

func (i *impl) Name() string { return "impl" }

func TestCheckInit(t *testing.T) {
	t.Run("all initialized check", func(t *testing.T) {
		var p provider = &impl{}
		require.NotPanics(t, func() { CheckInit("provider", p, "config", struct{}{}) })
	})
	t.Run("nil interface check", func(t *testing.T) {
		var p provider
		require.PanicsWithValue(t, "зависимость provider не инициализирована", func() { CheckInit("provider", p) })
	})
	t.Run("typed nil pointer check", func(t *testing.T) {
		var ptr *impl
		var p provider = ptr
		require.Panics(t, func() { CheckInit("provider", p) })
	})
	t.Run("odd arguments check", func(t *testing.T) {
		require.Panics(t, func() { CheckInit("provider") })
	})
}
