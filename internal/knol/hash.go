// Package knol derives the content identity of vocabulary items.
package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

// Normalize returns the identity of an item: its word and part of speech,
// lowercased, trimmed and with inner whitespace collapsed. Meanings and
// phonetics are left out so a corrected translation does not create a
// second item.
func Normalize(item domain.VocabItem) string {
	normalizePart := func(part string) string {
		return strings.Join(strings.Fields(strings.ToLower(part)), " ")
	}

	return normalizePart(item.Word) + "\n" + normalizePart(item.PartOfSpeech)
}

// Hash takes an item, normalizes it, and returns its SHA-256 hash as a hex string.
func Hash(item domain.VocabItem) string {
	normalized := Normalize(item)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}
