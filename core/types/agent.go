package types

// PlaceholderImageURL is shown when an agent has no usable NFT image.
const PlaceholderImageURL = "https://avatars.githubusercontent.com/u/86160567"

// UnknownID marks identity fields that could not be resolved.
const UnknownID = "unknown"

// Agent is the backend-indexed agent record.
type Agent struct {
	ID          string `json:"id"`
	RoleID      string `json:"role_id"`
	NftID       string `json:"nft_id"`
	Address     string `json:"address"`
	CreatedAt   string `json:"created_at"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
	Name        string `json:"name,omitempty"`
	Owner       string `json:"owner,omitempty"`
}

// AgentDetail is the view model of a single agent page. It is rebuilt from
// scratch on every load and never merged across role ids.
type AgentDetail struct {
	Agent
	Role     *RoleData `json:"role_data,omitempty"`
	Nft      *NftData  `json:"nft_data,omitempty"`
	IsOwner  bool      `json:"is_owner"`
	Degraded bool      `json:"degraded"`
}

// IsOwnerOf reports whether wallet holds an NFT owned by owner. Either side
// being unknown means no ownership.
func IsOwnerOf(wallet, owner string) bool {
	return wallet != "" && owner != "" && wallet == owner
}

// RecomputeOwner must be called whenever the connected wallet or the NFT
// owner changes.
func (d *AgentDetail) RecomputeOwner(wallet string) {
	owner := ""
	if d.Nft != nil {
		owner = d.Nft.Owner
	}
	d.IsOwner = IsOwnerOf(wallet, owner)
}

// DisplayName picks the backend name, then the NFT name.
func (d *AgentDetail) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	if d.Nft != nil && d.Nft.Name != "" {
		return d.Nft.Name
	}
	return "Unnamed agent"
}

// ImageURL returns the NFT image or the placeholder.
func (d *AgentDetail) ImageURL() string {
	if d.Nft != nil && d.Nft.URL != "" {
		return d.Nft.URL
	}
	return PlaceholderImageURL
}

// AgentSummary is an agent hub entry: the backend record enriched with NFT
// metadata.
type AgentSummary struct {
	Agent
	IsOwner bool `json:"is_owner"`
}
