package domain

// Word is the normalized, display-ready record for one requested word.
// ID is the token originally requested from the word list; Text is what the
// dictionary returned and may differ in casing or form.
type Word struct {
	ID       string    `json:"id"`
	Text     string    `json:"word"`
	Phonetic string    `json:"phonetic,omitempty"`
	AudioURL string    `json:"audioUrl,omitempty"`
	Meanings []Meaning `json:"meanings"`
	Origin   string    `json:"origin,omitempty"`
}

// Meaning is one part-of-speech group reduced to its first definition.
type Meaning struct {
	PartOfSpeech string   `json:"partOfSpeech"`
	Definition   string   `json:"definition"`
	Example      string   `json:"example,omitempty"`
	Synonyms     []string `json:"synonyms"`
	Antonyms     []string `json:"antonyms"`
}

// Clone returns a deep copy so callers can hand out words without sharing slices.
func (w Word) Clone() Word {
	out := w
	if w.Meanings != nil {
		out.Meanings = make([]Meaning, len(w.Meanings))
		for i, m := range w.Meanings {
			m.Synonyms = append([]string{}, m.Synonyms...)
			m.Antonyms = append([]string{}, m.Antonyms...)
			out.Meanings[i] = m
		}
	}
	return out
}

// CloneWords deep-copies a slice of words. A nil input yields an empty slice.
func CloneWords(words []Word) []Word {
	out := make([]Word, len(words))
	for i, w := range words {
		out[i] = w.Clone()
	}
	return out
}
