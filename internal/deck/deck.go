// Package deck loads the strategies file and deals cards from it.
package deck

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
)

var (
	// ErrEmptyDeck indicates that the strategies file produced no usable cards.
	ErrEmptyDeck = errors.New("deck is empty")
)

// Deck holds the loaded strategies and deals uniformly random cards.
// Reloads swap the card slice atomically; Draw never observes a partial deck.
type Deck struct {
	mu       sync.RWMutex
	path     string
	maxLines int
	cards    []string
}

// Load reads the strategies file at path: one card per line, trimmed,
// empty lines dropped, duplicates removed keeping the first occurrence.
// When maxLines is positive the deck keeps only the first maxLines cards.
// An unreadable file or an empty result is an error; callers treat it as
// fatal at startup.
func Load(path string, maxLines int) (*Deck, error) {
	cards, err := readCards(path, maxLines)
	if err != nil {
		return nil, err
	}

	return &Deck{path: path, maxLines: maxLines, cards: cards}, nil
}

// Draw returns one card chosen uniformly at random.
func (d *Deck) Draw() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.cards[rand.IntN(len(d.cards))]
}

// Size returns the current number of cards.
func (d *Deck) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.cards)
}

// Cards returns a copy of the loaded cards.
func (d *Deck) Cards() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, len(d.cards))
	copy(out, d.cards)
	return out
}

// Path returns the backing file path.
func (d *Deck) Path() string {
	return d.path
}

// Reload re-reads the backing file and swaps the deck. A reload that would
// leave the deck empty is rejected, keeping the previous cards.
func (d *Deck) Reload() error {
	cards, err := readCards(d.path, d.maxLines)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.cards = cards
	d.mu.Unlock()

	return nil
}

func readCards(path string, maxLines int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open deck file %q: %w", path, err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	var cards []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		cards = append(cards, line)
		if maxLines > 0 && len(cards) == maxLines {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read deck file %q: %w", path, err)
	}

	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDeck, path)
	}

	return cards, nil
}
