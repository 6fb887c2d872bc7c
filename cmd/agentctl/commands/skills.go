package commands

import (
	"fmt"

	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/mist"
	"github.com/anemonelab/agenthub/pkg/utils"
	"github.com/spf13/cobra"
)

type skillRow struct {
	Name    string
	ID      string
	Fee     string `table:"FEE (SUI)"`
	Enabled bool
	Author  string
}

type skillView struct {
	types.Skill `yaml:",inline"`
	DocURL      string `json:"doc_url,omitempty" yaml:"doc_url,omitempty"`
	DockerURL   string `json:"docker_url,omitempty" yaml:"docker_url,omitempty"`
}

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List the skill catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		list, err := catalog().Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to list skills: %w", err)
		}
		if !isTable() {
			render(cmd, list)
			return nil
		}
		rows := make([]skillRow, 0, len(list))
		for _, s := range list {
			rows = append(rows, skillRow{
				Name:    s.Name,
				ID:      utils.ShortID(s.ObjectID),
				Fee:     mist.FormatFee(s.Fee),
				Enabled: s.IsEnabled,
				Author:  utils.ShortID(s.Owner),
			})
		}
		render(cmd, rows)
		return nil
	},
}

var skillCmd = &cobra.Command{
	Use:   "skill <skill-id>",
	Short: "Show one skill",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		s, err := catalog().Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load skill: %w", err)
		}
		v := skillView{Skill: *s}
		if s.Doc != "" {
			v.DocURL = utils.DocURL(s.Doc)
		}
		if s.DockerImage != "" {
			v.DockerURL = utils.DockerHubURL(s.DockerImage)
		}
		if !isTable() {
			render(cmd, v)
			return nil
		}
		render(cmd, struct {
			Name        string
			ID          string
			Description string
			Fee         string `table:"FEE (SUI)"`
			Enabled     bool
			Author      string
			Endpoint    string
			Doc         string
			Docker      string
			Github      string
		}{s.Name, s.ObjectID, s.Description, mist.FormatFee(s.Fee), s.IsEnabled, s.Owner, s.Endpoint, v.DocURL, v.DockerURL, s.GithubRepo})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(skillCmd)
}
