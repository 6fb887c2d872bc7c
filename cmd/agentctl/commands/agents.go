package commands

import (
	"fmt"
	"strings"

	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/mist"
	"github.com/spf13/cobra"
)

type agentRow struct {
	Name   string
	RoleID string `table:"ROLE"`
	NftID  string `table:"NFT"`
	Owner  string
	Mine   bool
}

type agentView struct {
	Name     string   `json:"name" yaml:"name"`
	RoleID   string   `table:"ROLE" json:"role_id" yaml:"role_id"`
	NftID    string   `table:"NFT" json:"nft_id" yaml:"nft_id"`
	Address  string   `json:"address" yaml:"address"`
	Owner    string   `json:"owner" yaml:"owner"`
	Mine     bool     `json:"is_owner" yaml:"is_owner"`
	Balance  string   `table:"BALANCE (SUI)" json:"balance" yaml:"balance"`
	Health   string   `json:"health" yaml:"health"`
	Active   bool     `json:"is_active" yaml:"is_active"`
	Locked   bool     `json:"is_locked" yaml:"is_locked"`
	AppID    string   `table:"CVM" json:"app_id" yaml:"app_id"`
	Skills   []string `table:"-" json:"skills" yaml:"skills"`
	Degraded bool     `json:"degraded" yaml:"degraded"`
}

func newAgentView(d *types.AgentDetail) agentView {
	v := agentView{
		Name:     d.DisplayName(),
		RoleID:   d.RoleID,
		NftID:    d.NftID,
		Address:  d.Address,
		Mine:     d.IsOwner,
		Degraded: d.Degraded,
	}
	if d.Nft != nil {
		v.Owner = d.Nft.Owner
	}
	if r := d.Role; r != nil {
		v.Balance = mist.FormatFixed(r.Balance, 3)
		v.Health = fmt.Sprintf("%d%%", r.HealthPercentage())
		v.Active = r.IsActive
		v.Locked = r.IsLocked
		v.AppID = r.AppID
		v.Skills = r.Skills
	}
	return v
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents of the hub",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mine, _ := cmd.Flags().GetBool("mine")
		if mine && services.Wallet == "" {
			return fmt.Errorf("--mine needs a keystore_key in the config")
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		list, err := aggregator().ListAgents(ctx, services.Wallet, mine)
		if err != nil {
			return fmt.Errorf("failed to list agents: %w", err)
		}
		if !isTable() {
			render(cmd, list)
			return nil
		}
		rows := make([]agentRow, 0, len(list))
		for _, a := range list {
			rows = append(rows, agentRow{Name: a.Name, RoleID: a.RoleID, NftID: a.NftID, Owner: a.Owner, Mine: a.IsOwner})
		}
		render(cmd, rows)
		return nil
	},
}

var agentCmd = &cobra.Command{
	Use:   "agent <role-id>",
	Short: "Show one agent as the dashboard would",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		detail, err := loadAgent(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load agent: %w", err)
		}
		v := newAgentView(detail)
		render(cmd, v)
		if isTable() && len(v.Skills) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "SKILLS:\n  %s\n", strings.Join(v.Skills, "\n  "))
		}
		return nil
	},
}

func isTable() bool {
	f := strings.ToLower(cfg.OutputFormat)
	return f == "" || f == "table"
}

func init() {
	agentsCmd.Flags().Bool("mine", false, "only agents owned by the configured wallet")
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(agentCmd)
}
