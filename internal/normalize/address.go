package normalize

import (
	"regexp"
	"strings"
)

// ParsedAddress is the decomposition of a free-text street address.
type ParsedAddress struct {
	Street   string
	Suburb   string
	Region   string
	Postcode string
}

// addressTail matches an optional Australian state abbreviation followed by
// a 4-digit postcode at the end of the last address segment.
var addressTail = regexp.MustCompile(`(?i)(?:\b(VIC|NSW|QLD|SA|WA|TAS|NT|ACT)\b)?[\s,]*(\d{4})\s*$`)

// ParseAddress splits a free-text address on commas and pulls the state and
// postcode out of the final segment. When no state is present the region
// falls back to defaultRegion.
func ParseAddress(raw, defaultRegion string) ParsedAddress {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = squashSpaces(parts[i])
	}

	out := ParsedAddress{
		Street: parts[0],
		Region: strings.ToUpper(defaultRegion),
	}

	last := parts[len(parts)-1]
	suburbPart := ""
	if m := addressTail.FindStringSubmatchIndex(last); m != nil {
		if m[2] >= 0 {
			out.Region = strings.ToUpper(last[m[2]:m[3]])
		}
		out.Postcode = last[m[4]:m[5]]
		suburbPart = squashSpaces(last[:m[0]])
	} else if len(parts) > 1 {
		suburbPart = last
	}

	// An address like "12 High St, Preston, VIC 3072" carries the suburb in
	// its own middle segment rather than in the tail.
	if suburbPart == "" && len(parts) >= 3 {
		suburbPart = parts[len(parts)-2]
	}
	out.Suburb = CapitalizeSuburb(suburbPart)

	return out
}

// squashSpaces trims a segment and collapses internal whitespace runs.
func squashSpaces(s string) string {
	return strings.Join(strings.Fields(strings.Trim(s, " .")), " ")
}
