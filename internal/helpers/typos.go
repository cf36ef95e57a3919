package helpers

import (
	"strings"
	"unicode/utf8"
)

// Suggests one of a fixed set of words for a misspelled one. Only a single
// missing, extra, changed or swapped character is recognized, plus a
// difference in case. Words of three characters or fewer only match by case.
type TypoDetector struct {
	words     map[string]string
	deletions map[string]string
}

func MakeTypoDetector(valid []string) TypoDetector {
	detector := TypoDetector{
		words:     make(map[string]string),
		deletions: make(map[string]string),
	}

	for _, word := range valid {
		lower := strings.ToLower(word)
		detector.words[lower] = word
		if len(lower) > 3 {
			for _, shorter := range withOneRuneRemoved(lower) {
				detector.deletions[shorter] = word
			}
		}
	}

	return detector
}

func (detector TypoDetector) MaybeCorrectTypo(typo string) (string, bool) {
	lower := strings.ToLower(typo)
	if word, ok := detector.words[lower]; ok {
		return word, true
	}

	// A missing character
	if word, ok := detector.deletions[lower]; ok {
		return word, true
	}

	for _, shorter := range withOneRuneRemoved(lower) {
		// An extra character
		if word, ok := detector.words[shorter]; ok && len(shorter) > 3 {
			return word, true
		}

		// A changed or swapped character
		if word, ok := detector.deletions[shorter]; ok {
			return word, true
		}
	}

	return "", false
}

func withOneRuneRemoved(text string) []string {
	result := make([]string, 0, len(text))
	for i, ch := range text {
		result = append(result, text[:i]+text[i+utf8.RuneLen(ch):])
	}
	return result
}
