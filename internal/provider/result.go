// Package provider holds the provider-neutral shapes returned by the
// external word-list and dictionary adapters.
package provider

// RawDefinition is one dictionary entry as returned by a dictionary provider.
type RawDefinition struct {
	Word      string
	Phonetic  string
	Phonetics []Phonetic
	Meanings  []MeaningGroup
	Origin    string
}

// Phonetic is a phonetic variant; Audio is empty when the variant has no recording.
type Phonetic struct {
	Text  string
	Audio string
}

// MeaningGroup is a set of definitions sharing a part of speech.
type MeaningGroup struct {
	PartOfSpeech string
	Definitions  []DefinitionEntry
}

// DefinitionEntry is a single definition with optional example and related words.
type DefinitionEntry struct {
	Definition string
	Example    string
	Synonyms   []string
	Antonyms   []string
}
