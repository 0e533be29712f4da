// internal/store/key.go
//
// Opaque URL-safe keys for stored entities.
// Responsibilities:
//   - Encode a Kind and ID into a base64 key (GameKey)
//   - Decode keys and reject malformed or wrong-kind input

package store

import (
	"encoding/base64"
	"strings"

	"github.com/robalobadob/hangman/internal/apperr"
)

// Kind names the entity type a Key points at.
type Kind string

const (
	KindUser  Kind = "User"
	KindGame  Kind = "Game"
	KindScore Kind = "Score"
)

// Key is a typed reference to a stored entity.
type Key struct {
	Kind Kind
	ID   string
}

// Encode returns the opaque, URL-safe form handed to clients.
func (k Key) Encode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(string(k.Kind) + ":" + k.ID))
}

// GameKey encodes the key of game id.
func GameKey(id string) string { return Key{Kind: KindGame, ID: id}.Encode() }

// Decode parses an encoded key and checks it points at want.
// Malformed input and kind mismatches are both InvalidInput, never NotFound.
func Decode(s string, want Kind) (Key, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Key{}, apperr.Wrap(apperr.KindInvalidInput, "invalid key", err)
	}
	kind, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return Key{}, apperr.InvalidInput("invalid key")
	}
	switch Kind(kind) {
	case KindUser, KindGame, KindScore:
	default:
		return Key{}, apperr.InvalidInput("invalid key")
	}
	if Kind(kind) != want {
		return Key{}, apperr.InvalidInput("incorrect kind")
	}
	return Key{Kind: want, ID: id}, nil
}
