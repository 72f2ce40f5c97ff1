package normalize

import "strings"

// brandAliases collapses the historical and regional brand spellings seen
// across both upstreams into one controlled vocabulary. Keys are upper-case.
var brandAliases = map[string]string{
	"BP":                "BP",
	"BP AUSTRALIA":      "BP",
	"SHELL":             "Shell",
	"COLES EXPRESS":     "Shell",
	"VIVA ENERGY":       "Shell",
	"CALTEX":            "Caltex",
	"CALTEX WOOLWORTHS": "Caltex",
	"AMPOL":             "Ampol",
	"MOBIL":             "Mobil",
	"EXXONMOBIL":        "Mobil",
	"7-ELEVEN":          "7-Eleven",
	"7 ELEVEN":          "7-Eleven",
	"SEVEN ELEVEN":      "7-Eleven",
	"UNITED":            "United",
	"UNITED PETROLEUM":  "United",
	"LIBERTY":           "Liberty",
	"LIBERTY OIL":       "Liberty",
	"APCO":              "APCO",
	"COSTCO":            "Costco",
	"METRO":             "Metro",
	"METRO PETROLEUM":   "Metro",
}

// NormalizeBrand maps a raw brand/owner string to its canonical form.
// Lookup order: exact alias, longest alias key contained in the input,
// then title-casing the raw string unchanged. Idempotent by construction:
// every canonical value resolves back to itself.
func NormalizeBrand(raw string) string {
	up := strings.ToUpper(squashSpaces(raw))
	if up == "" {
		return ""
	}
	if canon, ok := brandAliases[up]; ok {
		return canon
	}

	best := ""
	canon := ""
	for key, v := range brandAliases {
		if len(key) > len(best) && strings.Contains(up, key) {
			best = key
			canon = v
		}
	}
	if canon != "" {
		return canon
	}

	return titleWords(up)
}

// titleWords lower-cases then capitalizes each word, leaving digits and
// punctuation alone.
func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = capitalizeWord(w)
	}
	return strings.Join(words, " ")
}

func capitalizeWord(w string) string {
	if w == "" {
		return w
	}
	r := []rune(w)
	for i, c := range r {
		if c >= 'a' && c <= 'z' {
			if i == 0 || !isLetter(r[i-1]) {
				r[i] = c - 'a' + 'A'
			}
			// Only the first letter of the word is raised; stop scanning
			// once a letter run has started.
			break
		}
		if isLetter(c) {
			break
		}
	}
	return string(r)
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
