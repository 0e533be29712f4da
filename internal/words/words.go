// internal/words/words.go
//
// Word store for the game engine.
//
// Responsibilities:
//   - Build an immutable list of candidate secret words.
//   - Load the list from a file (WORDS_FILE) or fall back to the embedded default.
//   - Pick a word uniformly at random.
//
// Constraints:
//   • Words are alphabetic a–z, normalized to lowercase; anything else is dropped.
//   • Duplicates are dropped, first occurrence wins.
//   • An empty list is a configuration error (ErrEmpty).

package words

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/robalobadob/hangman/assets"
)

// ErrEmpty is returned when no usable word survives normalization.
var ErrEmpty = errors.New("words: list is empty")

// List is an immutable set of secret words. The zero value is empty.
type List struct {
	words []string
}

// New normalizes raw into a List.
func New(raw []string) (List, error) {
	var l List
	seen := make(map[string]struct{}, len(raw))
	for _, w := range raw {
		w = strings.TrimSpace(strings.ToLower(w))
		if w == "" || !isAlpha(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		l.words = append(l.words, w)
	}
	if len(l.words) == 0 {
		return List{}, ErrEmpty
	}
	return l, nil
}

// Default returns the embedded vocabulary.
func Default() (List, error) {
	raw, err := assets.WordList()
	if err != nil {
		return List{}, fmt.Errorf("read embedded words: %w", err)
	}
	return New(raw)
}

// Load reads one word per line from path.
// An empty path falls back to Default.
func Load(path string) (List, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return List{}, err
	}
	defer f.Close()
	raw, err := assets.ReadLines(f)
	if err != nil {
		return List{}, fmt.Errorf("read %s: %w", path, err)
	}
	return New(raw)
}

// Random returns a word chosen uniformly with crypto/rand.
// It panics on an empty List; construct lists through New/Load/Default.
func (l List) Random() string {
	if len(l.words) == 0 {
		panic(ErrEmpty)
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(l.words))))
	if err != nil {
		return l.words[0]
	}
	return l.words[nBig.Int64()]
}

// Len reports the number of words.
func (l List) Len() int { return len(l.words) }

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
