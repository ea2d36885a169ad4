package tasksplit

import (
	"regexp"
	"strings"
)

// ordinals 1-8 followed by . 、 ) or ）, or a bullet followed by a space
var markerRE = regexp.MustCompile(`^(?:[1-8]\s*[.、)）]\s*|[-*•]\s+)`)

// ParseSteps splits a model response into steps, one per non-blank line,
// with list markers removed.
func ParseSteps(text string) []string {
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(markerRE.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		steps = append(steps, line)
	}
	return steps
}
