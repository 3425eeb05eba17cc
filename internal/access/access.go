// Package access enforces the allow/block policy on which databases may be
// targeted. The policy is evaluated before any connection handle is produced;
// a denied database never reaches the network layer.
package access

import "strings"

// Policy holds the configured database allow and block lists. Immutable
// after construction and safe for concurrent use.
type Policy struct {
	allowed map[string]struct{}
	blocked map[string]struct{}
}

// NewPolicy builds a Policy from the configured name lists. Blank entries
// and surrounding whitespace are dropped.
func NewPolicy(allowed, blocked []string) *Policy {
	return &Policy{
		allowed: toSet(allowed),
		blocked: toSet(blocked),
	}
}

// IsAllowed reports whether the named database may be targeted. A blocked
// name is always denied, even when it also appears in the allow list. An
// empty allow list means no allow-list restriction.
func (p *Policy) IsAllowed(database string) bool {
	if _, ok := p.blocked[database]; ok {
		return false
	}
	if len(p.allowed) == 0 {
		return true
	}
	_, ok := p.allowed[database]
	return ok
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}
