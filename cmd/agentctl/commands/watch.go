package commands

import (
	"context"
	"fmt"

	"github.com/anemonelab/agenthub/cmd/agentctl/tui"
	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/xstrings"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// watchFetch loads the agent once for its name and owner, then re-reads only
// the role object on every refresh.
func watchFetch(roleID string) tui.FetchFunc {
	var detail *types.AgentDetail
	return func(ctx context.Context) (*tui.Snapshot, error) {
		if detail == nil {
			d, err := loadAgent(ctx, roleID)
			if err != nil {
				return nil, err
			}
			detail = d
		}
		role, err := reader().Role(ctx, roleID)
		if err != nil {
			return nil, err
		}
		s := &tui.Snapshot{
			RoleID:  roleID,
			Name:    detail.DisplayName(),
			Balance: role.Balance,
			Health:  role.HealthPercentage(),
			Active:  role.IsActive,
			Locked:  role.IsLocked,
			Online:  role.IsActive,
			Source:  "chain",
			Skills:  len(xstrings.UniqueSlice(role.Skills)),
		}
		if detail.Nft != nil {
			s.BotOwner = detail.Nft.Owner
		}
		return s, nil
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch <role-id>",
	Short: "Follow an agent's balance and health live",
	Long: `Open a live view of one agent. The role is re-read from chain every
two seconds.

Key bindings:
  r          Force an immediate refresh
  q / Ctrl+C Quit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			return fmt.Errorf("interval must be positive")
		}
		model := tui.New(args[0], watchFetch(args[0])).WithInterval(interval)
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithOutput(cmd.OutOrStdout()))
		_, err := p.Run()
		return err
	},
}

func init() {
	watchCmd.Flags().Duration("interval", tui.RefreshInterval, "refresh period")
	rootCmd.AddCommand(watchCmd)
}
