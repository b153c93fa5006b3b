// Package speech contains pure transcript-normalization helpers shared by the
// game controllers. Nothing here holds state or touches the recognizer.
package speech

import "strings"

// letterNames maps spoken letter names (as recognizers typically emit them)
// to the canonical letter. Single a-z characters are handled before this table.
var letterNames = map[string]string{
	"a": "A", "ay": "A", "hey": "A",
	"b": "B", "bee": "B", "be": "B",
	"c": "C", "see": "C", "sea": "C",
	"d": "D", "dee": "D",
	"e": "E", "ee": "E",
	"f": "F", "ef": "F", "eff": "F",
	"g": "G", "gee": "G",
	"h": "H", "aitch": "H",
	"i": "I", "eye": "I",
	"j": "J", "jay": "J",
	"k": "K", "kay": "K",
	"l": "L", "el": "L",
	"m": "M", "em": "M",
	"n": "N", "en": "N",
	"o": "O", "oh": "O",
	"p": "P", "pee": "P",
	"q": "Q", "cue": "Q", "queue": "Q",
	"r": "R", "are": "R",
	"s": "S", "ess": "S",
	"t": "T", "tee": "T",
	"u": "U", "you": "U",
	"v": "V", "vee": "V",
	"w": "W", "doubleyou": "W", "double": "W",
	"x": "X", "ex": "X",
	"y": "Y", "why": "Y",
	"z": "Z", "zee": "Z", "zed": "Z",
}

// NormalizeToLetters converts raw recognized speech into the sequence of
// uppercase letters the speaker most likely spelled out. Tokens that are a
// single a-z character map directly; known spoken letter names map via the
// alias table; short alphabetic tokens are split letter-by-letter because
// recognizers tend to merge adjacent spoken letters into a word-like token
// ("abc" for "a b c"). Anything else is dropped.
func NormalizeToLetters(raw string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			return r
		}
		return ' '
	}, strings.ToLower(raw))

	var letters []string
	for _, token := range strings.Fields(cleaned) {
		if len(token) == 1 {
			letters = append(letters, strings.ToUpper(token))
			continue
		}
		if letter, ok := letterNames[token]; ok {
			letters = append(letters, letter)
			continue
		}
		// Recognizer merged several spelled letters into one token.
		if len(token) <= 5 {
			for _, ch := range token {
				letters = append(letters, strings.ToUpper(string(ch)))
			}
		}
	}
	return letters
}

// keywordStopWords are function words and generic fillers excluded from
// keyword extraction.
var keywordStopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "it": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "i": {}, "you": {}, "we": {}, "they": {},
	"and": {}, "or": {}, "but": {}, "so": {}, "because": {}, "for": {},
	"with": {}, "about": {}, "like": {}, "love": {}, "really": {},
	"very": {}, "just": {},
}

// ExtractKeywords returns up to three content words from the text, lower-cased
// and stripped of punctuation, in their original order. Words of length two or
// less and stop words are skipped.
func ExtractKeywords(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		case r == ' ', r == '\t', r == '\n', r == '\r':
			return r
		}
		return -1
	}, text)

	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(cleaned)) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := keywordStopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == 3 {
			break
		}
	}
	return keywords
}
