package state

import (
	"strings"

	"github.com/anemonelab/agenthub/core/chain"
	"github.com/anemonelab/agenthub/core/skills"
	"github.com/anemonelab/agenthub/pkg/config"
	"github.com/anemonelab/agenthub/pkg/mist"
)

// SkillConfig is the skill creation form. Fee is expressed in SUI.
type SkillConfig struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	Endpoint    string `json:"endpoint" form:"endpoint"`
	Doc         string `json:"doc" form:"doc"`
	GithubRepo  string `json:"github_repo" form:"github_repo"`
	DockerImage string `json:"docker_image" form:"docker_image"`
	Quote       string `json:"quote" form:"quote"`
	LogURL      string `json:"log_url" form:"log_url"`
	PublicKey   string `json:"public_key" form:"public_key"`
	Fee         string `json:"fee" form:"fee"`
}

// Params converts the form into transaction inputs. An empty fee selects
// the default.
func (c SkillConfig) Params() (chain.SkillParams, error) {
	fee := uint64(skills.DefaultFee)
	if s := strings.TrimSpace(c.Fee); s != "" {
		v, err := mist.ParseAmount(s)
		if err != nil {
			return chain.SkillParams{}, err
		}
		fee = v
	}
	return chain.SkillParams{
		Name:        strings.TrimSpace(c.Name),
		Description: strings.TrimSpace(c.Description),
		Endpoint:    strings.TrimSpace(c.Endpoint),
		Doc:         strings.TrimSpace(c.Doc),
		GithubRepo:  strings.TrimSpace(c.GithubRepo),
		DockerImage: strings.TrimSpace(c.DockerImage),
		Quote:       strings.TrimSpace(c.Quote),
		LogURL:      strings.TrimSpace(c.LogURL),
		PublicKey:   strings.TrimSpace(c.PublicKey),
		Fee:         fee,
	}, nil
}

func NewMintFormMeta() config.Form {
	return config.Form{
		Fields: []config.Field{
			{
				Name:        "name",
				Label:       "Name",
				Type:        config.FieldTypeText,
				Required:    true,
				Placeholder: "My agent",
				Tags:        config.Tags{Section: "BasicInfo"},
			},
			{
				Name:     "description",
				Label:    "Description",
				Type:     config.FieldTypeTextarea,
				Required: true,
				Tags:     config.Tags{Section: "BasicInfo"},
			},
			{
				Name:        "image_url",
				Label:       "Logo URL",
				Type:        config.FieldTypeText,
				Required:    true,
				Placeholder: "https://",
				Tags:        config.Tags{Section: "BasicInfo"},
			},
		},
	}
}

func NewSkillFormMeta() config.Form {
	return config.Form{
		Fields: []config.Field{
			{
				Name:     "name",
				Label:    "Name",
				Type:     config.FieldTypeText,
				Required: true,
				Tags:     config.Tags{Section: "BasicInfo"},
			},
			{
				Name:  "description",
				Label: "Description",
				Type:  config.FieldTypeTextarea,
				Tags:  config.Tags{Section: "BasicInfo"},
			},
			{
				Name:        "endpoint",
				Label:       "Endpoint",
				Type:        config.FieldTypeText,
				Required:    true,
				Placeholder: "https://",
				Tags:        config.Tags{Section: "Service"},
			},
			{
				Name:     "doc",
				Label:    "Documentation URL",
				Type:     config.FieldTypeText,
				HelpText: "Markdown file, raw or GitHub blob URL",
				Tags:     config.Tags{Section: "Service"},
			},
			{
				Name:  "github_repo",
				Label: "GitHub repository",
				Type:  config.FieldTypeText,
				Tags:  config.Tags{Section: "Service"},
			},
			{
				Name:        "docker_image",
				Label:       "Docker image",
				Type:        config.FieldTypeText,
				Placeholder: "org/image:tag",
				Tags:        config.Tags{Section: "Service"},
			},
			{
				Name:  "quote",
				Label: "Attestation quote",
				Type:  config.FieldTypeTextarea,
				Tags:  config.Tags{Section: "Attestation"},
			},
			{
				Name:  "log_url",
				Label: "Log URL",
				Type:  config.FieldTypeText,
				Tags:  config.Tags{Section: "Attestation"},
			},
			{
				Name:  "public_key",
				Label: "Public key",
				Type:  config.FieldTypeText,
				Tags:  config.Tags{Section: "Attestation"},
			},
			{
				Name:         "fee",
				Label:        "Fee (SUI)",
				Type:         config.FieldTypeNumber,
				DefaultValue: mist.FormatFee(skills.DefaultFee),
				Min:          0,
				Step:         0.001,
				Tags:         config.Tags{Section: "Pricing"},
			},
		},
	}
}
