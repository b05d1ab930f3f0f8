package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"

	"p9e.in/fieldreport/pkg/apperr"
)

// SanitizeFilename reduces a client filename to a safe base name
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}

// ObjectPath builds {org}/{project}/{submission}/{filename}. The submission
// segment may be a draft id generated by the client before the form exists.
func ObjectPath(orgID, projectID uuid.UUID, submission, filename string) (string, error) {
	if orgID == uuid.Nil || projectID == uuid.Nil {
		return "", apperr.Validation("org and project are required for an upload path")
	}
	submission = strings.TrimSpace(submission)
	if submission == "" || strings.ContainsAny(submission, "/\\") || submission == "." || submission == ".." {
		return "", apperr.Validation("invalid submission segment %q", submission)
	}
	return strings.Join([]string{orgID.String(), projectID.String(), submission, SanitizeFilename(filename)}, "/"), nil
}

// CheckPath verifies that p is a well-formed object path inside orgID
func CheckPath(p string, orgID uuid.UUID) error {
	parts := strings.Split(p, "/")
	if len(parts) != 4 {
		return apperr.Validation("path must be {org}/{project}/{submission}/{filename}")
	}
	for _, seg := range parts {
		if seg == "" || seg == "." || seg == ".." {
			return apperr.Validation("path has an empty or relative segment")
		}
	}
	if parts[0] != orgID.String() {
		return apperr.Forbidden("path belongs to another organization")
	}
	return nil
}
