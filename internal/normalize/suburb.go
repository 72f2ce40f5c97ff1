package normalize

import "strings"

// suburbPrefixes are abbreviation words that keep their conventional short
// form rather than plain title casing.
var suburbPrefixes = map[string]string{
	"ST":    "St",
	"ST.":   "St",
	"SAINT": "St",
	"MT":    "Mt",
	"MT.":   "Mt",
	"MOUNT": "Mt",
}

// CapitalizeSuburb title-cases a suburb name, expanding saint/mount
// abbreviation forms and preserving the internal capitals of name
// particles such as Mc and O' prefixes.
func CapitalizeSuburb(raw string) string {
	words := strings.Fields(strings.ToLower(squashSpaces(raw)))
	for i, w := range words {
		if canon, ok := suburbPrefixes[strings.ToUpper(w)]; ok && len(words) > 1 {
			words[i] = canon
			continue
		}
		words[i] = capitalizeParticle(w)
	}
	return strings.Join(words, " ")
}

func capitalizeParticle(w string) string {
	switch {
	case strings.HasPrefix(w, "mc") && len(w) > 2:
		return "Mc" + capitalizeWord(w[2:])
	case strings.HasPrefix(w, "o'") && len(w) > 2:
		return "O'" + capitalizeWord(w[2:])
	default:
		return capitalizeWord(w)
	}
}
