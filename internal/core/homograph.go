package core

import (
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// confusables maps common non-Latin look-alikes onto the Latin letter they imitate
var confusables = map[rune]rune{
	'а': 'a', 'е': 'e', 'о': 'o', 'р': 'p', 'с': 'c', 'х': 'x', 'у': 'y',
	'і': 'i', 'ј': 'j', 'ѕ': 's', 'һ': 'h', 'ԁ': 'd', 'ɡ': 'g', 'ӏ': 'l',
	'α': 'a', 'ο': 'o', 'ν': 'v', 'τ': 't', 'κ': 'k', 'ι': 'i', 'ρ': 'p',
	'ı': 'i', 'ℓ': 'l', '０': '0', '１': '1',
}

// skeleton folds a Unicode hostname onto the ASCII string it most likely imitates
func skeleton(host string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, host)
	if err != nil {
		folded = host
	}

	return strings.Map(func(r rune) rune {
		if latin, ok := confusables[r]; ok {
			return latin
		}
		return r
	}, strings.ToLower(folded))
}

// decodeHost returns the Unicode form of a possibly punycoded hostname
func decodeHost(host string) string {
	decoded, err := idna.Lookup.ToUnicode(host)
	if err != nil {
		return host
	}
	return decoded
}
