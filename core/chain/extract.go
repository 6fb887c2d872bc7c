package chain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/anemonelab/agenthub/core/types"
	"github.com/mudler/xlog"
)

// Result is either a decoded value or the reason decoding failed.
type Result[T any] struct {
	Value  T
	Reason string
	ok     bool
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, ok: true}
}

func Malformed[T any](format string, args ...any) Result[T] {
	return Result[T]{Reason: fmt.Sprintf(format, args...)}
}

func (r Result[T]) IsOk() bool { return r.ok }

// Err converts a malformed result into an error wrapping ErrMalformed.
func (r Result[T]) Err() error {
	if r.ok {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMalformed, r.Reason)
}

// moveFields returns the fields of a move object or the reason it has none.
func moveFields(resp *ObjectResponse) (map[string]any, string) {
	switch {
	case resp == nil || resp.Data == nil:
		return nil, "no object data"
	case resp.Data.Content == nil:
		return nil, "no object content"
	case resp.Data.Content.DataType != "moveObject":
		return nil, fmt.Sprintf("unexpected content type %q", resp.Data.Content.DataType)
	case resp.Data.Content.Fields == nil:
		return nil, "object has no fields"
	}
	return resp.Data.Content.Fields, ""
}

// DecodeRole decodes a role object. Missing optional fields become zero
// values; only a response without move fields is malformed.
func DecodeRole(id string, resp *ObjectResponse) Result[types.RoleData] {
	fields, reason := moveFields(resp)
	if fields == nil {
		return Malformed[types.RoleData]("role %s: %s", id, reason)
	}

	return Ok(types.RoleData{
		ID:             id,
		BotNFTID:       NormalizeID(fields["bot_nft_id"]),
		Health:         Uint(fields["health"]),
		IsActive:       Bool(fields["is_active"]),
		IsLocked:       Bool(fields["is_locked"]),
		LastEpoch:      Uint(fields["last_epoch"]),
		InactiveEpochs: Uint(fields["inactive_epochs"]),
		Balance:        Balance(fields["balance"]),
		BotAddress:     String(fields["bot_address"]),
		Skills:         StringList(fields["skills"]),
		AppID:          String(fields["app_id"]),
	})
}

// NormalizeID accepts an id encoded as a plain string or as an {id: "..."}
// wrapper. Any other shape yields "".
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case map[string]any:
		if s, ok := id["id"].(string); ok {
			return s
		}
		// UID wrappers nest once more: {id: {id: "0x.."}}
		if inner, ok := id["id"].(map[string]any); ok {
			if s, ok := inner["id"].(string); ok {
				return s
			}
		}
	}
	raw, _ := json.Marshal(v)
	xlog.Warn("Unrecognized object id shape", "value", string(raw))
	return ""
}

// Uint reads a u64 that may be encoded as a decimal string or a JSON number.
// Absent or unparsable values are 0.
func Uint(v any) uint64 {
	switch n := v.(type) {
	case string:
		u, err := strconv.ParseUint(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0
		}
		return u
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return 0
		}
		return u
	case float64:
		if n < 0 || math.IsNaN(n) || n > math.MaxUint64 {
			return 0
		}
		return uint64(n)
	case int:
		if n < 0 {
			return 0
		}
		return uint64(n)
	case int64:
		if n < 0 {
			return 0
		}
		return uint64(n)
	case uint64:
		return n
	}
	return 0
}

// Balance reads a Balance<T> which is nested as {value: "..."} on chain.
func Balance(v any) uint64 {
	if m, ok := v.(map[string]any); ok {
		return Uint(m["value"])
	}
	return Uint(v)
}

func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}

func String(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// StringList keeps the string entries of an array and drops everything
// else.
func StringList(v any) []string {
	out := []string{}
	arr, ok := v.([]any)
	if !ok {
		return out
	}
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// DecodeNft prefers the display projection and falls back to the raw
// content fields when url or name are missing. It never fails.
func DecodeNft(resp *ObjectResponse) types.NftData {
	nft := types.NftData{}
	if resp == nil || resp.Data == nil {
		return nft
	}

	nft.Owner = AddressOwner(resp.Data.Owner)

	if display := displayFields(resp.Data.Display); display != nil {
		nft.URL = String(display["image_url"])
		if nft.URL == "" {
			nft.URL = String(display["imageUrl"])
		}
		nft.Name = String(display["name"])
		nft.Description = String(display["description"])
	}

	if nft.URL == "" || nft.Name == "" {
		if fields, _ := moveFields(resp); fields != nil {
			nft.URL = String(fields["url"])
			nft.Name = String(fields["name"])
			nft.Description = String(fields["description"])
		}
	}
	return nft
}

// displayFields unwraps {data: {...}, error: ...}; a bare map is accepted
// too.
func displayFields(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	if data, ok := m["data"].(map[string]any); ok {
		return data
	}
	if _, wrapped := m["data"]; wrapped {
		return nil
	}
	return m
}

// AddressOwner extracts the address of an address-owned object. Shared,
// immutable and object-owned shapes yield "".
func AddressOwner(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var owner map[string]any
	if err := json.Unmarshal(raw, &owner); err != nil {
		xlog.Debug("Object owner is not address owned", "owner", string(raw))
		return ""
	}
	if addr, ok := owner["AddressOwner"].(string); ok {
		return addr
	}
	xlog.Debug("Object owner is not address owned", "owner", string(raw))
	return ""
}

// DecodeSkill decodes a skill object.
func DecodeSkill(id string, resp *ObjectResponse) Result[types.Skill] {
	fields, reason := moveFields(resp)
	if fields == nil {
		return Malformed[types.Skill]("skill %s: %s", id, reason)
	}
	return Ok(types.Skill{
		ObjectID:    id,
		Name:        String(fields["name"]),
		Description: String(fields["description"]),
		Endpoint:    String(fields["endpoint"]),
		Doc:         String(fields["doc"]),
		GithubRepo:  String(fields["github_repo"]),
		DockerImage: String(fields["docker_image"]),
		Quote:       String(fields["quote"]),
		LogURL:      String(fields["log_url"]),
		PublicKey:   String(fields["public_key"]),
		Fee:         Uint(fields["fee"]),
		Owner:       String(fields["author"]),
		IsEnabled:   Bool(fields["is_enabled"]),
	})
}

// Created returns the objects a transaction created.
func Created(tx *TransactionBlock) []ObjectChange {
	out := []ObjectChange{}
	if tx == nil {
		return out
	}
	for _, c := range tx.ObjectChanges {
		if c.Type == "created" {
			out = append(out, c)
		}
	}
	return out
}

// FindCreated returns the id of the first created object whose type
// contains typeSuffix (for example "::role_manager::Role").
func FindCreated(tx *TransactionBlock, typeSuffix string) string {
	for _, c := range Created(tx) {
		if strings.Contains(c.ObjectType, typeSuffix) {
			return c.ObjectID
		}
	}
	return ""
}
