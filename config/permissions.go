package config

import "p9e.in/fieldreport/models"

// Permission names are resource:action and may use wildcards, see
// utils.MatchesPermission.
const (
	PermFormsSubmit    = "forms:submit"
	PermFormsRead      = "forms:read"
	PermFormsEdit      = "forms:edit"
	PermTimecardRead   = "timecard:read"
	PermTimecardEdit   = "timecard:edit"
	PermTimecardExport = "timecard:export"
	PermSafetyRead     = "safety:read"
	PermHaulingSubmit  = "hauling:submit"
	PermDirectoryRead  = "directory:read"
	PermStorageWrite   = "storage:write"
	PermStorageRead    = "storage:read"
)

// RolePermissions is the grant table per employee role
var RolePermissions = map[string][]string{
	models.RoleWorker: {
		PermFormsSubmit, PermFormsRead, PermDirectoryRead,
		PermStorageWrite, PermStorageRead,
	},
	models.RoleForeman: {
		"forms:*", "timecard:*", PermHaulingSubmit, PermDirectoryRead,
		"storage:*",
	},
	models.RoleSafety: {
		"forms:*", "safety:*", PermTimecardRead, PermDirectoryRead,
		"storage:*",
	},
	models.RoleAdmin: {"*"},
}

// PermissionsFor returns the grants for role; unknown roles get none
func PermissionsFor(role string) []string {
	return RolePermissions[role]
}
