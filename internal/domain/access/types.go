package access

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleLeader Role = "leader"
	RoleMember Role = "member"
)

type Capability string

const (
	// CapEditSite covers edit mode, inline and dialog saves, and section
	// reordering.
	CapEditSite    Capability = "edit_site"
	CapConveneTeam Capability = "convene_team"
	CapManageUsers Capability = "manage_users"
)

type EditorMode string

const (
	EditorFull EditorMode = "full"
	EditorNone EditorMode = "none"
)

func ValidRole(r string) bool {
	switch Role(r) {
	case RoleAdmin, RoleEditor, RoleLeader, RoleMember:
		return true
	}
	return false
}
