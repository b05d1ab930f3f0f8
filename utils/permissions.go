package utils

import "strings"

// MatchesPermission checks a granted permission against a required one.
// Grants may use wildcards:
//
//   - "*" or "*:*:*" matches everything
//   - "forms:*" matches every action on forms
//   - "*:read" matches read on every resource
//
// Names are "resource:action" or "resource:action:scope"; names without a
// colon only match exactly.
func MatchesPermission(userPerm, requiredPerm string) bool {
	if userPerm == requiredPerm {
		return true
	}
	if userPerm == "*:*:*" || userPerm == "*" {
		return true
	}

	userParts := strings.Split(userPerm, ":")
	reqParts := strings.Split(requiredPerm, ":")
	if len(userParts) < 2 || len(reqParts) < 2 {
		return false
	}

	resourceMatch := userParts[0] == "*" || userParts[0] == reqParts[0]
	actionMatch := userParts[1] == "*" || userParts[1] == reqParts[1]
	return resourceMatch && actionMatch
}

// HasPermission reports whether any grant covers required
func HasPermission(grants []string, required string) bool {
	for _, g := range grants {
		if MatchesPermission(g, required) {
			return true
		}
	}
	return false
}
