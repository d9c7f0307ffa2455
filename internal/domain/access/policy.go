package access

import "ministry-site/internal/domain/users"

type Policy struct {
	Role         Role
	EditorMode   EditorMode
	Capabilities []Capability
}

// ComputePolicy derives the effective policy of a stored user. Inactive
// accounts get no capabilities.
func ComputePolicy(u users.User) Policy {
	if !u.Active {
		return Policy{Role: Role(u.Role), EditorMode: EditorNone, Capabilities: []Capability{}}
	}
	return Policy{
		Role:         Role(u.Role),
		EditorMode:   EditorModeFor(u.Role),
		Capabilities: CapabilitiesFor(u.Role),
	}
}

func (p Policy) Allows(c Capability) bool {
	for _, have := range p.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}
