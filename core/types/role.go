package types

// RoleData is the on-chain state of an agent role. Health and Balance are
// expressed in MIST (1e9 MIST = 1 SUI).
type RoleData struct {
	ID             string   `json:"id"`
	BotNFTID       string   `json:"bot_nft_id"`
	Health         uint64   `json:"health"`
	IsActive       bool     `json:"is_active"`
	IsLocked       bool     `json:"is_locked"`
	LastEpoch      uint64   `json:"last_epoch"`
	InactiveEpochs uint64   `json:"inactive_epochs"`
	Balance        uint64   `json:"balance"`
	BotAddress     string   `json:"bot_address"`
	Skills         []string `json:"skills"`
	AppID          string   `json:"app_id,omitempty"`
}

// Clone returns a deep copy so callers can hand out role data without
// sharing the skills slice.
func (r *RoleData) Clone() *RoleData {
	if r == nil {
		return nil
	}
	c := *r
	c.Skills = append([]string(nil), r.Skills...)
	return &c
}

// maxHealth is the health value rendered as 100%.
const maxHealth = 100 * 1_000_000_000

// HealthPercentage maps health onto [0, 100].
func (r *RoleData) HealthPercentage() int {
	if r == nil || r.Health == 0 {
		return 0
	}
	p := r.Health / (maxHealth / 100)
	if p > 100 {
		return 100
	}
	return int(p)
}

// NftData is the display metadata of a bot NFT. Owner is the wallet address
// holding the NFT and is authoritative for access control.
type NftData struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner,omitempty"`
}
