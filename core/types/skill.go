package types

import "github.com/anemonelab/agenthub/pkg/xstrings"

// Skill is a callable capability that can be attached to a role. Fee is in
// MIST.
type Skill struct {
	ObjectID    string `json:"object_id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`
	Doc         string `json:"doc,omitempty"`
	GithubRepo  string `json:"github_repo,omitempty"`
	DockerImage string `json:"docker_image,omitempty"`
	Quote       string `json:"quote,omitempty"`
	LogURL      string `json:"log_url,omitempty"`
	PublicKey   string `json:"public_key,omitempty"`
	Fee         uint64 `json:"fee"`
	Owner       string `json:"owner,omitempty"`
	IsEnabled   bool   `json:"is_enabled"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// UnknownSkillName labels skills whose chain object could not be read.
const UnknownSkillName = "Unknown skill"

// StubSkill is the placeholder used when a skill's details are unavailable.
func StubSkill(id string) Skill {
	return Skill{ObjectID: id, Name: UnknownSkillName}
}

// Merge overlays chain-provided values on a registry entry. Chain fields win
// whenever they are set.
func (s Skill) Merge(chain Skill) Skill {
	out := s
	if out.ObjectID == "" {
		out.ObjectID = chain.ObjectID
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&out.Name, chain.Name)
	set(&out.Description, chain.Description)
	set(&out.Endpoint, chain.Endpoint)
	set(&out.Doc, chain.Doc)
	set(&out.GithubRepo, chain.GithubRepo)
	set(&out.DockerImage, chain.DockerImage)
	set(&out.Quote, chain.Quote)
	set(&out.LogURL, chain.LogURL)
	set(&out.PublicKey, chain.PublicKey)
	set(&out.Owner, chain.Owner)
	if chain.Fee != 0 {
		out.Fee = chain.Fee
	}
	out.IsEnabled = chain.IsEnabled
	return out
}

// UniqueSkills keeps the first occurrence of every object id.
func UniqueSkills(lists ...[]Skill) []Skill {
	var all []Skill
	for _, l := range lists {
		all = append(all, l...)
	}
	return xstrings.UniqueBy(all, func(s Skill) string { return s.ObjectID })
}
