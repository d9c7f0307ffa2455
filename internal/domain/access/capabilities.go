package access

// CapabilitiesFor lists what a role may do. Unknown roles get nothing.
func CapabilitiesFor(role string) []Capability {
	switch Role(role) {
	case RoleAdmin:
		return []Capability{CapEditSite, CapConveneTeam, CapManageUsers}
	case RoleEditor:
		return []Capability{CapEditSite}
	case RoleLeader:
		return []Capability{CapConveneTeam}
	default:
		return []Capability{}
	}
}

func Has(role string, capability Capability) bool {
	for _, c := range CapabilitiesFor(role) {
		if c == capability {
			return true
		}
	}
	return false
}

// CanEditSite decides whether the edit-mode toggle exists at all for an
// identity.
func CanEditSite(role string) bool {
	return Has(role, CapEditSite)
}

func EditorModeFor(role string) EditorMode {
	if CanEditSite(role) {
		return EditorFull
	}
	return EditorNone
}
