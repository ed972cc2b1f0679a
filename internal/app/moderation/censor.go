/*
Package moderation filters public-room message content against a configured
dictionary of censored words before broadcast and storage.

Matching uses an Aho-Corasick automaton over a normalized form of the input,
so simple obfuscation (leet speak, inserted punctuation) is still caught.
Matched spans are starred out in the original text; spacing is preserved.
*/
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// CensorRune replaces each character of a matched span.
const CensorRune = '*'

// Censor stars out dictionary matches in message content. It implements the
// chat service's Sanitizer contract. The zero value passes text through
// unchanged.
type Censor struct {
	matcher *goahocorasick.Machine
}

// textMapping relates a normalized rune stream back to positions in the
// original text so matches can be starred out in place.
type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewCensor builds the Aho-Corasick automaton from the censored-word list.
// Words are normalized the same way inputs are, so the dictionary can be
// written in plain lowercase.
func NewCensor(censoredWords []string) (*Censor, error) {
	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		norm := normalizeRunes([]rune(word))
		if len(norm) > 0 {
			patterns = append(patterns, norm)
		}
	}

	c := &Censor{}
	if len(patterns) == 0 {
		return c, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	c.matcher = m

	return c, nil
}

// Sanitize replaces every dictionary match in content with stars and returns
// the result. Content without matches is returned unchanged.
func (c *Censor) Sanitize(content string) string {
	if c.matcher == nil {
		return content
	}

	mapping := normalize(content)
	if len(mapping.normalized) == 0 {
		return content
	}

	spans := c.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return content
	}

	origRunes := []rune(content)
	for _, span := range spans {
		normStart := span.Pos
		normEnd := normStart + len(span.Word)

		if normStart < 0 || normEnd > len(mapping.origIdx) {
			continue
		}

		origStart := mapping.origIdx[normStart]
		origEnd := mapping.origIdx[normEnd-1] + 1

		for i := origStart; i < origEnd; i++ {
			origRunes[i] = CensorRune
		}
	}

	return string(origRunes)
}

// normalize transforms the input into a searchable rune stream and tracks
// each rune's position in the original text.
func normalize(input string) textMapping {
	origRunes := []rune(input)
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))

	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}

	return textMapping{normalized: norm, origIdx: origIdx}
}

// normalizeRunes applies simplification and noise removal to a slice of runes.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leet speak characters back to their standard
// alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise identifies characters that are skipped during pattern matching.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
