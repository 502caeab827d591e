package digest

import (
	"fmt"
	"regexp"
	"strings"

	"newsbite/internal/repository"
)

// Template placeholders are stored in the database as {name}. Substitution
// is strict: a placeholder with no value in the render context fails the
// digest rather than leaving a blank in a user-facing email.
var placeholderPattern = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

func render(tmpl string, vars map[string]string) (string, error) {
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: unresolved placeholder(s) %s",
			repository.ErrTemplateRender, strings.Join(missing, ", "))
	}
	return out, nil
}
