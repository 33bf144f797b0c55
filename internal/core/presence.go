package core

import "github.com/chillflicks/chillflicks/internal/domain"

// electHost applies the succession rule: the earliest remaining joiner
// becomes host. Members keep insertion order, so that is index zero.
// Returns the promoted member, or nil when the session is empty or a host
// is already present.
func electHost(members []*member) *member {
	if len(members) == 0 {
		return nil
	}
	for _, m := range members {
		if m.part.Role == domain.RoleHost {
			return nil
		}
	}
	next := members[0]
	next.part.Role = domain.RoleHost
	return next
}
