package submission

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode is the lifecycle a submit call runs under
type Mode string

const (
	ModeCreate    Mode = "create"
	ModeEdit      Mode = "edit"
	ModeDuplicate Mode = "duplicate"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeCreate, nil
	case ModeCreate, ModeEdit, ModeDuplicate:
		return m, nil
	default:
		return "", fmt.Errorf("unknown submission mode %q", s)
	}
}

func (m *Mode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Inserts reports whether the mode writes a brand new header row
func (m Mode) Inserts() bool {
	return m == ModeCreate || m == ModeDuplicate || m == ""
}
