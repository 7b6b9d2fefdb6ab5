package node

import (
	"testing"

	"github.com/hupe1980/rstar/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(min, max []float64) spatial.Rect {
	r, err := spatial.NewRect(min, max)
	if err != nil {
		panic(err)
	}
	return r
}

func TestNode(t *testing.T) {
	n := NewLeaf(3, 2)
	assert.True(t, n.IsLeaf())
	assert.True(t, n.MBR().IsEmpty())

	n.Append(Entry{ID: 1, MBR: spatial.Point([]float64{0, 0}), Flags: FlagUnhandled})
	n.Append(Entry{ID: 2, MBR: spatial.Point([]float64{1, 1}), Flags: FlagHandled})
	assert.False(t, n.Overflows())
	n.Append(Entry{ID: 3, MBR: spatial.Point([]float64{2, -1})})
	assert.True(t, n.Overflows())

	mbr := n.MBR()
	assert.Equal(t, []float64{0, -1}, mbr.Min)
	assert.Equal(t, []float64{2, 1}, mbr.Max)
	assert.True(t, n.HasHandled())
	assert.True(t, n.HasUnhandled())
	assert.NoError(t, n.Validate(2))
	assert.Error(t, n.Validate(3))

	c := n.Clone()
	c.Entries[0].MBR.Min[0] = 99
	assert.Equal(t, 0.0, n.Entries[0].MBR.Min[0])
}

func TestValidateKind(t *testing.T) {
	n := NewDirectory(1, 4)
	n.Append(Entry{ID: 7, MBR: spatial.Point([]float64{0})})
	assert.Error(t, n.Validate(1))

	n.Entries[0].Child = 7
	assert.NoError(t, n.Validate(1))
	assert.Equal(t, 0, n.IndexOfChild(7))
	assert.Equal(t, -1, n.IndexOfChild(8))
}

func TestCodecRoundTrip(t *testing.T) {
	t.Run("Leaf", func(t *testing.T) {
		n := NewLeaf(5, 4)
		n.Append(Entry{ID: 10, MBR: box([]float64{0, 1}, []float64{2, 3}), Flags: FlagUnhandled})
		n.Append(Entry{ID: 11, MBR: spatial.Point([]float64{-1.5, 4})})

		data, err := Marshal(n, 2)
		require.NoError(t, err)
		assert.Len(t, data, EncodedSize(KindLeaf, 2, 2))

		got, err := Unmarshal(data, 4)
		require.NoError(t, err)
		assert.Equal(t, n.PageID, got.PageID)
		assert.Equal(t, n.Kind, got.Kind)
		assert.Equal(t, n.Entries, got.Entries)
	})

	t.Run("Directory", func(t *testing.T) {
		n := NewDirectory(9, 4)
		n.Append(Entry{ID: 2, Child: 2, MBR: box([]float64{0}, []float64{1}), Flags: FlagHandled | FlagUnhandled})
		n.Append(Entry{ID: 3, Child: 3, MBR: box([]float64{1}, []float64{5})})

		data, err := Marshal(n, 1)
		require.NoError(t, err)

		got, err := Unmarshal(data, 4)
		require.NoError(t, err)
		assert.Equal(t, KindDirectory, got.Kind)
		assert.Equal(t, n.Entries, got.Entries)
		assert.True(t, got.Entries[0].Flags.Has(FlagHandled))
	})

	t.Run("DirectoryWithoutChild", func(t *testing.T) {
		n := NewDirectory(9, 4)
		n.Append(Entry{ID: 2, MBR: spatial.Point([]float64{0})})
		_, err := Marshal(n, 1)
		assert.Error(t, err)
	})
}

func TestUnmarshalMalformed(t *testing.T) {
	_, err := Unmarshal([]byte{1, 2}, 4)
	assert.ErrorIs(t, err, ErrMalformed)

	n := NewLeaf(1, 4)
	n.Append(Entry{ID: 1, MBR: spatial.Point([]float64{1, 2})})
	data, err := Marshal(n, 2)
	require.NoError(t, err)

	bad := append([]byte(nil), data...)
	bad[0] = 9
	_, err = Unmarshal(bad, 4)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Unmarshal(data[:len(data)-3], 4)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestMaxEntries(t *testing.T) {
	assert.Equal(t, 4+1+32, EntrySize(KindLeaf, 2))
	assert.Equal(t, 4+1+32+4, EntrySize(KindDirectory, 2))
	assert.Equal(t, (4096-HeaderSize)/37, MaxEntries(KindLeaf, 2, 4096))
	assert.Equal(t, 0, MaxEntries(KindLeaf, 2, 4))
}
