package wordfeed

import (
	"github.com/heartmarshall/wordbrowser/internal/domain"
	"github.com/heartmarshall/wordbrowser/internal/provider"
)

// Normalize maps a raw dictionary entry to the display record for the
// requested token. Only the first definition of each meaning group is kept.
// Phonetic text and audio are selected independently: the phonetic is the
// top-level one (falling back to the first variant's text) while the audio is
// taken from the first variant that has a recording. Groups without any
// definition are dropped.
func Normalize(token string, def *provider.RawDefinition) domain.Word {
	w := domain.Word{
		ID:       token,
		Text:     def.Word,
		Phonetic: def.Phonetic,
		Meanings: make([]domain.Meaning, 0, len(def.Meanings)),
		Origin:   def.Origin,
	}

	if w.Phonetic == "" && len(def.Phonetics) > 0 {
		w.Phonetic = def.Phonetics[0].Text
	}

	for _, ph := range def.Phonetics {
		if ph.Audio != "" {
			w.AudioURL = ph.Audio
			break
		}
	}

	for _, group := range def.Meanings {
		if len(group.Definitions) == 0 {
			continue
		}
		first := group.Definitions[0]
		w.Meanings = append(w.Meanings, domain.Meaning{
			PartOfSpeech: group.PartOfSpeech,
			Definition:   first.Definition,
			Example:      first.Example,
			Synonyms:     orEmpty(first.Synonyms),
			Antonyms:     orEmpty(first.Antonyms),
		})
	}

	return w
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, s...)
}
