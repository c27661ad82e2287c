package parse

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// exports contain at least one misspelled prefix ("restauerante-")
	venuePrefixRe = regexp.MustCompile(`(?i)^restau\w*ante-`)
	separatorRe   = regexp.MustCompile(`[-_\s]+`)
)

// RestaurantDisplayName turns a venue slug such as "restaurante-saona-ciscar"
// into a label such as "Saona Ciscar".
func RestaurantDisplayName(id string) string {
	s := strings.TrimSpace(id)
	s = venuePrefixRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(separatorRe.ReplaceAllString(s, " "))
	if s == "" {
		return strings.TrimSpace(id)
	}
	// Casers carry state and cannot be shared between goroutines.
	return cases.Title(language.Spanish).String(s)
}
