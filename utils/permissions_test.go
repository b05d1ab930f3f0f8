package utils

import "testing"

func TestMatchesPermission(t *testing.T) {
	tests := []struct {
		name         string
		userPerm     string
		requiredPerm string
		expected     bool
	}{
		// Exact matches
		{"exact match same permission", "forms:submit", "forms:submit", true},
		{"exact match different action", "forms:submit", "forms:edit", false},
		{"exact match different resource", "forms:read", "timecard:read", false},

		// Full wildcard
		{"full wildcard *:*:*", "*:*:*", "timecard:export", true},
		{"full wildcard *", "*", "hauling:submit", true},

		// Resource wildcard
		{"resource wildcard matches edit", "timecard:*", "timecard:edit", true},
		{"resource wildcard matches export", "timecard:*", "timecard:export", true},
		{"resource wildcard doesn't match other resource", "timecard:*", "hauling:submit", false},

		// Action wildcard
		{"action wildcard matches forms", "*:read", "forms:read", true},
		{"action wildcard matches storage", "*:read", "storage:read", true},
		{"action wildcard doesn't match write", "*:read", "storage:write", false},

		// Scoped names
		{"scoped requirement matches resource wildcard", "forms:*", "forms:edit:own", true},

		// Names without colons
		{"plain exact match", "admin", "admin", true},
		{"plain no match", "admin", "admin:read", false},
		{"full wildcard matches plain", "*:*:*", "plain_perm", true},

		// Edge cases
		{"empty required permission", "forms:submit", "", false},
		{"empty user permission", "", "forms:submit", false},
		{"both empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MatchesPermission(tt.userPerm, tt.requiredPerm)
			if result != tt.expected {
				t.Errorf("MatchesPermission(%q, %q) = %v, expected %v",
					tt.userPerm, tt.requiredPerm, result, tt.expected)
			}
		})
	}
}

func TestHasPermission_RoleGrants(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		grants   []string
		required string
		expected bool
	}{
		{"admin can do anything", "admin", []string{"*"}, "timecard:export", true},
		{"foreman edits time cards", "foreman", []string{"forms:*", "timecard:*"}, "timecard:edit", true},
		{"foreman cannot read safety reports", "foreman", []string{"forms:*", "timecard:*"}, "safety:read", false},
		{"worker submits forms", "worker", []string{"forms:submit", "forms:read"}, "forms:submit", true},
		{"worker cannot edit", "worker", []string{"forms:submit", "forms:read"}, "forms:edit", false},
		{"no grants", "unknown", nil, "forms:read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.grants, tt.required); got != tt.expected {
				t.Errorf("role %q with %v: HasPermission(%q) = %v, expected %v",
					tt.role, tt.grants, tt.required, got, tt.expected)
			}
		})
	}
}

func BenchmarkMatchesPermission_ExactMatch(b *testing.B) {
	for i := 0; i < b.N; i++ {
		MatchesPermission("forms:submit", "forms:submit")
	}
}

func BenchmarkMatchesPermission_ResourceWildcard(b *testing.B) {
	for i := 0; i < b.N; i++ {
		MatchesPermission("timecard:*", "timecard:edit")
	}
}

func BenchmarkMatchesPermission_NoMatch(b *testing.B) {
	for i := 0; i < b.N; i++ {
		MatchesPermission("forms:read", "hauling:submit")
	}
}
