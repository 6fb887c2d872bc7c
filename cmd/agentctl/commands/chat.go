package commands

import (
	"fmt"
	"strings"

	"github.com/anemonelab/agenthub/cmd/agentctl/output"
	"github.com/anemonelab/agenthub/pkg/xstrings"
	"github.com/spf13/cobra"
)

const chatWidth = 80

var chatCmd = &cobra.Command{
	Use:   "chat <role-id> <message...>",
	Short: "Send a message to an agent and print its reply",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.TrimSpace(strings.Join(args[1:], " "))
		if message == "" {
			return fmt.Errorf("message cannot be empty")
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		resp, err := services.Backend.SendMessage(ctx, args[0], message)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), output.Error("Error: "+err.Error()))
			return fmt.Errorf("failed to send message: %w", err)
		}
		if !isTable() {
			render(cmd, resp)
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, output.Speaker("agent"))
		for _, line := range xstrings.WrapLines(resp.Text, chatWidth) {
			fmt.Fprintln(out, "  "+line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
