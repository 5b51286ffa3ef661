package service

import (
	"testing"

	"backoffice/internal/backoffice/data"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPermissions(t *testing.T) {
	permissions := DefaultPermissions()

	allowed := map[data.Role][]data.Action{
		data.RoleJunior:   {},
		data.RoleTeamlead: {data.ActionApprove, data.ActionReject, data.ActionComment, data.ActionCreateTask},
		data.RoleManager:  {data.ActionApprove, data.ActionReject, data.ActionBlock, data.ActionComment, data.ActionCreateTask},
		data.RoleHR:       {data.ActionApprove, data.ActionReject, data.ActionBlock, data.ActionComment},
		data.RoleCFO:      {data.ActionApprove, data.ActionReject, data.ActionBlock, data.ActionComment},
		data.RoleAdmin:    {data.ActionApprove, data.ActionReject, data.ActionBlock, data.ActionComment, data.ActionCreateTask},
	}
	all := []data.Action{
		data.ActionApprove,
		data.ActionReject,
		data.ActionBlock,
		data.ActionComment,
		data.ActionCreateTask,
	}

	for role, actions := range allowed {
		granted := make(map[data.Action]bool, len(actions))
		for _, action := range actions {
			granted[action] = true
		}
		for _, action := range all {
			assert.Equal(
				t,
				granted[action],
				permissions.Allows(role, action),
				"role %s action %s", role, action,
			)
		}
	}
}

func TestPermissionsUnknownRole(t *testing.T) {
	permissions := DefaultPermissions()
	assert.False(t, permissions.Allows(data.Role("auditor"), data.ActionApprove))
}
