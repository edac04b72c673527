package model

// SessionKind is the tracked activity type
type SessionKind string

const (
	KindChat SessionKind = "chat"
	KindCall SessionKind = "call"
)

func (k SessionKind) Valid() bool {
	return k == KindChat || k == KindCall
}

// Other returns the opposite kind. A user is doing exactly one
// tracked activity at a time, so opening one kind closes the other.
func (k SessionKind) Other() SessionKind {
	if k == KindChat {
		return KindCall
	}
	return KindChat
}

// CloseReason records why a session ended
type CloseReason string

const (
	ReasonManual           CloseReason = "manual"
	ReasonIdleTimeout      CloseReason = "idle-timeout"
	ReasonSwitchedActivity CloseReason = "switched-activity"
	ReasonSuperseded       CloseReason = "superseded"
	ReasonRoleRemoved      CloseReason = "role-removed"
)

// Role is a guard hierarchy position
type Role string

const (
	RoleOwner      Role = "owner"
	RoleSeniorAll  Role = "senior_all"
	RoleSeniorChat Role = "senior_chat"
	RoleSeniorCall Role = "senior_call"
	RoleAdminChat  Role = "admin_chat"
	RoleAdminCall  Role = "admin_call"
)

// RolesOrder lists roles from highest to lowest, used for guard list rendering
var RolesOrder = []Role{
	RoleOwner, RoleSeniorAll, RoleSeniorChat, RoleSeniorCall, RoleAdminChat, RoleAdminCall,
}

// ChatRoles are the roles included in the nightly chat table
var ChatRoles = []Role{RoleOwner, RoleSeniorAll, RoleSeniorChat, RoleAdminChat}

// CallRoles are the roles included in the nightly call table
var CallRoles = []Role{RoleOwner, RoleSeniorAll, RoleSeniorCall, RoleAdminCall}
