package deck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDeckFile(t *testing.T, lines string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "strategies.txt")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o600))
	return path
}

func TestLoad_TrimsAndDeduplicates(t *testing.T) {
	path := writeDeckFile(t, "  Honor thy error as a hidden intention  \n\nUse an old idea\nUse an old idea\n\tAbandon normal instruments\n")

	d, err := Load(path, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Honor thy error as a hidden intention",
		"Use an old idea",
		"Abandon normal instruments",
	}, d.Cards())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"), 0)
	assert.Error(t, err)
}

func TestLoad_CapsLineCount(t *testing.T) {
	path := writeDeckFile(t, "one\ntwo\nthree\nfour\nfive\n")

	d, err := Load(path, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two", "three"}, d.Cards())

	require.NoError(t, os.WriteFile(path, []byte("six\nseven\neight\nnine\n"), 0o600))
	require.NoError(t, d.Reload())
	assert.Equal(t, 3, d.Size(), "cap must hold across reloads")
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeDeckFile(t, "\n   \n\n")

	_, err := Load(path, 0)
	assert.ErrorIs(t, err, ErrEmptyDeck)
}

func TestDraw_ReturnsMember(t *testing.T) {
	path := writeDeckFile(t, "alpha\nbeta\ngamma\n")

	d, err := Load(path, 0)
	require.NoError(t, err)

	members := map[string]bool{"alpha": true, "beta": true, "gamma": true}
	for i := 0; i < 100; i++ {
		assert.True(t, members[d.Draw()], "draw returned a card outside the deck")
	}
}

// With N much larger than M, a uniform drawer should touch every card.
func TestDraw_CoversAllCards(t *testing.T) {
	path := writeDeckFile(t, "one\ntwo\nthree\nfour\nfive\n")

	d, err := Load(path, 0)
	require.NoError(t, err)

	seen := make(map[string]int)
	for i := 0; i < 2000; i++ {
		seen[d.Draw()]++
	}

	assert.Len(t, seen, d.Size(), "expected all cards to be drawn at least once")
	for card, count := range seen {
		assert.Greater(t, count, 0, "card %q never drawn", card)
	}
}

func TestReload_SwapsCards(t *testing.T) {
	path := writeDeckFile(t, "old card\n")

	d, err := Load(path, 0)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("new card\n"), 0o600))
	require.NoError(t, d.Reload())

	assert.Equal(t, []string{"new card"}, d.Cards())
}

func TestReload_RejectsEmptyFile(t *testing.T) {
	path := writeDeckFile(t, "the only card\n")

	d, err := Load(path, 0)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))
	assert.ErrorIs(t, d.Reload(), ErrEmptyDeck)
	assert.Equal(t, []string{"the only card"}, d.Cards(), "previous deck must survive a bad reload")
}
