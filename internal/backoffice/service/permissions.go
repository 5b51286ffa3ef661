package service

import "backoffice/internal/backoffice/data"

// Capabilities is the reviewing power of one role. The matrix is built once
// at startup and injected; handlers and the engine never recompute it.
type Capabilities struct {
	CanApprove    bool
	CanReject     bool
	CanBlock      bool
	CanComment    bool
	CanCreateTask bool
}

type Permissions map[data.Role]Capabilities

func DefaultPermissions() Permissions {
	return Permissions{
		data.RoleJunior: {},
		data.RoleTeamlead: {
			CanApprove:    true,
			CanReject:     true,
			CanComment:    true,
			CanCreateTask: true,
		},
		data.RoleManager: {
			CanApprove:    true,
			CanReject:     true,
			CanBlock:      true,
			CanComment:    true,
			CanCreateTask: true,
		},
		data.RoleHR: {
			CanApprove: true,
			CanReject:  true,
			CanBlock:   true,
			CanComment: true,
		},
		data.RoleCFO: {
			CanApprove: true,
			CanReject:  true,
			CanBlock:   true,
			CanComment: true,
		},
		data.RoleAdmin: {
			CanApprove:    true,
			CanReject:     true,
			CanBlock:      true,
			CanComment:    true,
			CanCreateTask: true,
		},
	}
}

// Allows checks the capability guarding a single action.
func (p Permissions) Allows(role data.Role, action data.Action) bool {
	caps, ok := p[role]
	if !ok {
		return false
	}
	switch action {
	case data.ActionApprove:
		return caps.CanApprove
	case data.ActionReject:
		return caps.CanReject
	case data.ActionBlock:
		return caps.CanBlock
	case data.ActionComment:
		return caps.CanComment
	case data.ActionCreateTask:
		return caps.CanCreateTask
	default:
		return false
	}
}
