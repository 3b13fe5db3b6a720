package pipeline

import (
	"context"
	"regexp"
)

// MatchFunc receives every match of a pattern in an entity's contents
type MatchFunc func(entity string, matches []string)

// Match runs re over each entity's complete contents
func Match(re *regexp.Regexp, fn MatchFunc) Stage {
	return StageFunc(func(_ context.Context, entity string, in []byte) ([]byte, error) {
		fn(entity, re.FindAllString(string(in), -1))
		return in, nil
	})
}
