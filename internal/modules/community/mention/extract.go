package mention

import (
	"regexp"

	"github.com/coursekit/core/internal/models"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// Extract returns the @-mention candidates in text, in first-seen
// order with duplicates removed. A candidate is the word-character run
// after an @; punctuation ends the token.
func Extract(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Resolve matches candidates against the roster by exact display name.
// Unknown names resolve to nothing. Users sharing a display name all
// resolve; the candidate token cannot distinguish them.
func Resolve(candidates []string, roster []models.UserModel) []models.UserModel {
	if len(candidates) == 0 || len(roster) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		wanted[c] = struct{}{}
	}
	var out []models.UserModel
	for _, u := range roster {
		if _, ok := wanted[u.Name]; ok {
			out = append(out, u)
		}
	}
	return out
}
