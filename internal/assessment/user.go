package assessment

import (
	"bytes"
	"encoding/json"
)

// UnmarshalJSON accepts either a populated user object or a bare id string.
func (u *SessionUser) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*u = SessionUser{ID: id}
		return nil
	}
	type plain SessionUser
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*u = SessionUser(p)
	return nil
}
