// Package cors holds the origin allow-list for the monitor's HTTP and
// WebSocket surfaces.
package cors

import "strings"

type OriginRule struct {
	AllowAll bool
	Prefix   string
	Suffix   string
	Exact    string
}

// Rules is an ordered origin allow-list. The zero value allows nothing.
type Rules []OriginRule

// ParseOriginRules parses a comma-separated origin list. "*" allows every
// origin; a "*" inside an entry splits it into a prefix/suffix wildcard.
func ParseOriginRules(env string) Rules {
	if env == "" {
		return nil
	}
	var rules Rules
	for _, o := range strings.Split(env, ",") {
		if o = strings.TrimSpace(o); o == "" {
			continue
		}
		switch {
		case o == "*":
			rules = append(rules, OriginRule{AllowAll: true})
		case strings.Contains(o, "*"):
			parts := strings.SplitN(o, "*", 2)
			rules = append(rules, OriginRule{Prefix: parts[0], Suffix: parts[1]})
		default:
			rules = append(rules, OriginRule{Exact: o})
		}
	}
	return rules
}

// Allow reports whether the origin matches any rule.
func (r Rules) Allow(origin string) bool {
	for _, rule := range r {
		if rule.AllowAll {
			return true
		}
		if rule.Exact != "" && origin == rule.Exact {
			return true
		}
		if (rule.Prefix != "" || rule.Suffix != "") &&
			strings.HasPrefix(origin, rule.Prefix) && strings.HasSuffix(origin, rule.Suffix) {
			return true
		}
	}
	return false
}
