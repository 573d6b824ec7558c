package canopy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIterStopsOnError(t *testing.T) {
	t.Parallel()
	s := newUintStash(t, 0)
	tr := treeOf(s, 1, 2, 3, 4, 5)
	defer tr.Release()

	boom := errors.New("boom")
	var seen []uint64
	err := tr.Iter(func(x uint64) error {
		seen = append(seen, x)
		if x == 3 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, []uint64{1, 2, 3}, seen)
}

func TestCursor(t *testing.T) {
	t.Parallel()
	s := newUintStash(t, 0)
	tr := treeOf(s, 4, 2, 5, 1, 3)
	defer tr.Release()

	c := tr.Cursor()
	var got []uint64
	for x, ok := c.Next(); ok; x, ok = c.Next() {
		got = append(got, x)
	}
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, got)

	// The tree is immutable, so a fresh cursor replays the same sequence.
	c = tr.Cursor()
	var again []uint64
	for x, ok := c.Next(); ok; x, ok = c.Next() {
		again = append(again, x)
	}
	require.Equal(t, got, again)
}

func TestCursorEmpty(t *testing.T) {
	t.Parallel()
	s := newUintStash(t, 0)
	e := s.Empty()
	c := e.Cursor()
	_, ok := c.Next()
	require.False(t, ok)
}

func TestCursorSurvivesNewVersions(t *testing.T) {
	t.Parallel()
	s := newUintStash(t, 0)
	tr := treeOf(s, 1, 2, 3)
	c := tr.Cursor()
	// Deriving and releasing another version does not disturb a cursor on
	// a retained tree.
	nt, _ := tr.Insert(4)
	nt.Release()
	var got []uint64
	for x, ok := c.Next(); ok; x, ok = c.Next() {
		got = append(got, x)
	}
	require.Equal(t, []uint64{1, 2, 3}, got)
	tr.Release()
}
