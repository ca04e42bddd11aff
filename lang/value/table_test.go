package value_test

import (
	"testing"

	"github.com/mna/corvid/lang/value"
	"github.com/stretchr/testify/require"
)

func intern(s string) *value.ObjString {
	return value.NewObjString(s, value.FNV1a32(s))
}

func TestTableSetGet(t *testing.T) {
	tbl := value.NewTable()
	k := intern("answer")
	require.True(t, tbl.Set(k, value.Number(42)))
	got, ok := tbl.Get(k)
	require.True(t, ok)
	require.Equal(t, 42.0, got.AsNumber())
}

func TestTableOverwriteIsNotNew(t *testing.T) {
	tbl := value.NewTable()
	k := intern("x")
	require.True(t, tbl.Set(k, value.Number(1)))
	require.False(t, tbl.Set(k, value.Number(2)))
	got, _ := tbl.Get(k)
	require.Equal(t, 2.0, got.AsNumber())
}

func TestTableDeleteLeavesTombstoneAndPreservesProbe(t *testing.T) {
	tbl := value.NewTable()
	a, b := intern("a"), intern("b")
	tbl.Set(a, value.Number(1))
	tbl.Set(b, value.Number(2))
	require.True(t, tbl.Delete(a))
	_, ok := tbl.Get(a)
	require.False(t, ok)
	// b must still be reachable even though a tombstone sits along its probe
	// sequence in the unlucky-hash case.
	got, ok := tbl.Get(b)
	require.True(t, ok)
	require.Equal(t, 2.0, got.AsNumber())
}

func TestTableGrowsAndRecomputesCount(t *testing.T) {
	tbl := value.NewTable()
	for i := 0; i < 100; i++ {
		tbl.Set(intern(string(rune('a'+i%26))+string(rune(i))), value.Number(float64(i)))
	}
	require.Equal(t, 100, tbl.Count())
}

func TestFindString(t *testing.T) {
	tbl := value.NewTable()
	k := intern("hello")
	tbl.Set(k, value.Null)
	found := tbl.FindString("hello", value.FNV1a32("hello"))
	require.Same(t, k, found)
	require.Nil(t, tbl.FindString("nope", value.FNV1a32("nope")))
}

func TestDeleteUnreachableRemovesUnmarkedKeys(t *testing.T) {
	tbl := value.NewTable()
	marked := intern("marked")
	unmarked := intern("unmarked")
	value.SetMarked(marked, true)
	tbl.Set(marked, value.Null)
	tbl.Set(unmarked, value.Null)

	tbl.DeleteUnreachable()

	_, ok := tbl.Get(marked)
	require.True(t, ok)
	require.Nil(t, tbl.FindString("unmarked", value.FNV1a32("unmarked")))
}

func TestAddAllCopiesEntries(t *testing.T) {
	greet := intern("greet")
	src := value.NewTable()
	src.Set(greet, value.Number(1))
	dst := value.NewTable()
	dst.AddAll(src)
	got, ok := dst.Get(greet)
	require.True(t, ok)
	require.Equal(t, 1.0, got.AsNumber())
}
