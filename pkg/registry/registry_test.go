package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseRegistry_DuplicateRegistrationRejected(t *testing.T) {
	r := NewBaseRegistry[int]()

	require.NoError(t, r.Register("a", 1))
	err := r.Register("a", 2)
	require.Error(t, err)

	v, ok := r.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestBaseRegistry_EmptyNameRejected(t *testing.T) {
	r := NewBaseRegistry[int]()
	require.Error(t, r.Register("", 1))
}

func TestBaseRegistry_OrderedPreservesRegistrationOrder(t *testing.T) {
	r := NewBaseRegistry[string]()
	require.NoError(t, r.Register("third", "c"))
	require.NoError(t, r.Register("first", "a"))
	require.NoError(t, r.Register("second", "b"))

	require.Equal(t, []string{"c", "a", "b"}, r.Ordered())
}

func TestBaseRegistry_NamesAreSorted(t *testing.T) {
	r := NewBaseRegistry[int]()
	require.NoError(t, r.Register("zeta", 1))
	require.NoError(t, r.Register("alpha", 2))

	require.Equal(t, []string{"alpha", "zeta"}, r.Names())
}

func TestBaseRegistry_Replace(t *testing.T) {
	r := NewBaseRegistry[int]()
	require.NoError(t, r.Register("a", 1))
	require.NoError(t, r.Replace("a", 2))

	v, ok := r.Get("a")
	require.True(t, ok)
	require.Equal(t, 2, v)
	require.Equal(t, []string{"a"}, r.Ordered())
}

func TestBaseRegistry_RemoveDropsFromOrderAndItems(t *testing.T) {
	r := NewBaseRegistry[int]()
	require.NoError(t, r.Register("a", 1))
	require.NoError(t, r.Register("b", 2))

	require.NoError(t, r.Remove("a"))
	require.Equal(t, []int{2}, r.Ordered())
	require.Equal(t, 1, r.Count())

	require.Error(t, r.Remove("a"))
}

func TestBaseRegistry_Clear(t *testing.T) {
	r := NewBaseRegistry[int]()
	require.NoError(t, r.Register("a", 1))
	r.Clear()

	require.Equal(t, 0, r.Count())
	require.Empty(t, r.Ordered())
}
