package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// rawString reads a JSON string or number as a string.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// rawUint reads a u64 encoded as a JSON number or a decimal string.
func rawUint(raw json.RawMessage) uint64 {
	u, err := strconv.ParseUint(strings.TrimSpace(rawString(raw)), 10, 64)
	if err != nil {
		return 0
	}
	return u
}

// UnmarshalJSON accepts numeric ids, which the backend uses for its own
// primary keys.
func (a *Agent) UnmarshalJSON(b []byte) error {
	type alias Agent
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	a.ID = rawString(aux.ID)
	return nil
}

// UnmarshalJSON accepts fees encoded as strings, the way u64 values leave
// the chain.
func (s *Skill) UnmarshalJSON(b []byte) error {
	type alias Skill
	aux := struct {
		Fee json.RawMessage `json:"fee"`
		*alias
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.Fee = rawUint(aux.Fee)
	return nil
}
