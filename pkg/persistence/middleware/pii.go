package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
)

// Mask replaces redacted property values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.Registrar
	patterns []*regexp.Regexp
}

// CompilePatterns compiles property-name patterns, reporting the first invalid one.
func CompilePatterns(patternStrings []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return patterns, nil
}

// NewPIIMiddleware creates a middleware that masks property values whose names match
// one of the patterns, at any nesting depth. Keys, kinds and dependencies are untouched.
func NewPIIMiddleware(patterns []*regexp.Regexp) Middleware {
	return func(next ports.Registrar) ports.Registrar {
		if len(patterns) == 0 {
			return next
		}
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Register(ctx context.Context, d domain.Descriptor) error {
	// Deep clone so the caller's descriptor keeps the original values.
	cloned := d.Clone()
	cloned.Properties = deepCopyMap(d.Properties)

	maskMap(cloned.Properties, m.patterns)

	return m.next.Register(ctx, cloned)
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v // shallow copy of value
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok && !masked {
			maskMap(subMap, patterns)
		}
	}
}
