// Package format renders resolved and derived profile data into display
// strings. Everything here is a pure function over already-resolved values;
// resolution and derivation live upstream.
package format

import (
	"fmt"
	"strings"

	pstrings "casefile/pkg/platform/strings"
)

// raceCodes and sexCodes map resolved descriptors onto the single-letter
// codes used in shorthand descriptions. Unmapped values read "U" (unknown).
var raceCodes = map[string]string{
	"white":            "W",
	"black":            "B",
	"asian":            "A",
	"hispanic":         "H",
	"native american":  "I",
	"pacific islander": "P",
}

var sexCodes = map[string]string{
	"male":   "M",
	"female": "F",
}

const unknownCode = "U"

// segmentSeparator joins the present segments of a shorthand description.
const segmentSeparator = " – "

// DisplayName renders "<last>, <first> <middle-initial>", dropping the
// middle clause when no middle name is known.
func DisplayName(first, middle, last string) string {
	name := fmt.Sprintf("%s, %s", last, first)
	if initial := Initial(middle); initial != "" {
		name += " " + initial
	}
	return name
}

// FullName renders "<first> <last>".
func FullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// SplitFullName splits whitespace-separated name input into its parts:
// the first token is the first name, the last token the last name, and with
// three or more tokens the second token becomes the middle name. Tokens
// between the second and the last are dropped; longstanding behavior callers
// rely on, kept as-is. A single token becomes both first and last name.
// Fewer than three tokens leave the middle name untouched, so ok reports
// whether a middle name was produced. Empty input clears everything.
func SplitFullName(input string) (first, middle, last string, ok bool) {
	tokens := strings.Fields(input)
	switch len(tokens) {
	case 0:
		return "", "", "", true
	case 1:
		return tokens[0], "", tokens[0], false
	case 2:
		return tokens[0], "", tokens[1], false
	default:
		return tokens[0], tokens[1], tokens[len(tokens)-1], true
	}
}

// AddressLineOne returns the text before the first comma of an address.
func AddressLineOne(address string) string {
	line, _, _ := strings.Cut(address, ",")
	return line
}

// AddressLineTwo returns everything after the first comma, rejoined with
// commas. A two-part address round-trips exactly; longer addresses keep
// their commas but not the original spacing around the first one.
func AddressLineTwo(address string) string {
	_, rest, found := strings.Cut(address, ",")
	if !found {
		return ""
	}
	return rest
}

// Height renders feet and inches as `5'10"`. Both components zero means no
// height is known and renders empty.
func Height(feet, inches int) string {
	if feet == 0 && inches == 0 {
		return ""
	}
	return fmt.Sprintf("%d'%d\"", feet, inches)
}

// Weight renders pounds as "180 lb". Zero means unknown and renders empty.
func Weight(pounds int) string {
	if pounds == 0 {
		return ""
	}
	return fmt.Sprintf("%d lb", pounds)
}

// RaceCode returns the single-letter code for a race descriptor, "U" when
// unmapped.
func RaceCode(race string) string {
	if code, ok := raceCodes[strings.ToLower(strings.TrimSpace(race))]; ok {
		return code
	}
	return unknownCode
}

// SexCode returns the single-letter code for a sex descriptor, "U" when
// unmapped.
func SexCode(sex string) string {
	if code, ok := sexCodes[strings.ToLower(strings.TrimSpace(sex))]; ok {
		return code
	}
	return unknownCode
}

// ShorthandDescription renders the roster one-liner, e.g. `WM – 5'10" – 180 lb`.
// The race/sex segment is always present (unknowns read "UU"); the height
// segment is omitted when no height is known and the weight segment when no
// weight is known.
func ShorthandDescription(race, sex string, feet, inches, pounds int) string {
	return pstrings.JoinNonEmpty(segmentSeparator,
		RaceCode(race)+SexCode(sex),
		Height(feet, inches),
		Weight(pounds),
	)
}

// Initial returns the first rune of name as a string, empty for empty input.
func Initial(name string) string {
	for _, r := range name {
		return string(r)
	}
	return ""
}
