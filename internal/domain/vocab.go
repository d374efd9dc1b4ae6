package domain

// DeckKind distinguishes decks everyone can enroll in from a learner's own.
type DeckKind string

const (
	SharedDeck   DeckKind = "shared"
	PersonalDeck DeckKind = "personal"
)

// Deck is a named collection of vocabulary items.
type Deck struct {
	ID          string
	Name        string
	Kind        DeckKind
	Owner       string // empty for shared decks
	Description string
	Tags        []string
}

// VocabItem is a single word entry. The scheduler treats it as an opaque
// payload attached to a Progress.
type VocabItem struct {
	ID           string
	DeckID       string
	Word         string
	PartOfSpeech string
	Phonetic     string
	Meaning      string
	Example      string
	Definition   string
	Image        string
	Tags         []string
	Hash         string // normalised content hash, see knol.Hash
}
