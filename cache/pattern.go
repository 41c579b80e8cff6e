package cache

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// CompilePattern translates a glob key pattern into an anchored regular
// expression. Only '*' is special: it matches any run of characters,
// including the ':' key-family separator, so "clients:u1:*" covers every
// pagination and filter combination ever cached for that owner. All other
// characters match literally.
//
// Both backends share this translation; Redis applies the equivalent glob
// natively via MATCH, the memory store applies the compiled expression.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	re, err := regexp.Compile(`\A` + strings.Join(parts, ".*") + `\z`)
	if err != nil {
		return nil, errors.Wrapf(err, "cache: invalid key pattern %q", pattern)
	}
	return re, nil
}

// MatchPattern reports whether key matches the glob pattern.
func MatchPattern(pattern, key string) bool {
	re, err := CompilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(key)
}
