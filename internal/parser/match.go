package parser

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNoMatchingVariable is returned when no zVariable name satisfies a pattern.
var ErrNoMatchingVariable = errors.New("no zVariable matches pattern")

// MatchFirst returns the first name the pattern matches at its beginning.
// The pattern is anchored at the start of the name only, so trailing text is allowed.
func MatchFirst(pattern string, names []string) (string, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return "", fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}
	for _, name := range names {
		if re.MatchString(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %s (among %d variables)", ErrNoMatchingVariable, pattern, len(names))
}
