// Package commands implements the agentctl command tree.
package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anemonelab/agenthub/cmd/agentctl/config"
	"github.com/anemonelab/agenthub/cmd/agentctl/output"
	"github.com/anemonelab/agenthub/core/agent"
	"github.com/anemonelab/agenthub/core/chain"
	"github.com/anemonelab/agenthub/core/cvm"
	"github.com/anemonelab/agenthub/core/skills"
	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/client"
	"github.com/anemonelab/agenthub/pkg/sui"
	"github.com/spf13/cobra"
)

// Backend is every backend API call agentctl makes.
type Backend interface {
	agent.Backend
	skills.Registry
	cvm.Backend
	SendMessage(ctx context.Context, roleID, message string) (*client.ChatResponse, error)
}

// Services are the remote endpoints a command talks to.
type Services struct {
	Backend Backend
	Objects chain.ObjectReader
	// Wallet is the address ownership is computed for; empty without a
	// keystore key.
	Wallet string
}

var (
	cfgFile      string
	outputFormat string
	backendURL   string
	rpcURL       string

	cfg       *config.Config
	services  *Services
	injected  bool
	formatter output.Formatter
	timeout   = config.DefaultTimeout
)

var rootCmd = &cobra.Command{
	Use:   "agentctl",
	Short: "Inspect and operate agents of the Anemone marketplace",
	Long: `agentctl reads agents and skills from the Sui chain and the agent
backend, shows CVM status, relays chat messages and watches an agent's
balance live.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if backendURL != "" {
			cfg.BackendURL = backendURL
		}
		if rpcURL != "" {
			cfg.RPCURL = rpcURL
		}
		if outputFormat != "" {
			cfg.OutputFormat = outputFormat
		}
		if !output.Valid(cfg.OutputFormat) {
			return fmt.Errorf("unknown output format %q", cfg.OutputFormat)
		}
		formatter = output.NewFormatter(cfg.OutputFormat)

		if timeout, err = cfg.RequestTimeout(); err != nil {
			return err
		}
		if injected {
			return nil
		}
		services, err = dial(cfg, timeout)
		return err
	},
}

func dial(cfg *config.Config, timeout time.Duration) (*Services, error) {
	s := &Services{
		Backend: client.NewClient(cfg.BackendURL, cfg.APIKey, timeout),
		Objects: sui.NewClient(cfg.RPCURL, cfg.RPCRate, timeout),
	}
	if cfg.KeystoreKey != "" {
		key, err := sui.ParseKeystoreKey(cfg.KeystoreKey)
		if err != nil {
			return nil, fmt.Errorf("keystore key: %w", err)
		}
		s.Wallet = key.Address()
	}
	return s, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// SetServices replaces the dialed endpoints, for tests.
func SetServices(s *Services) {
	services = s
	injected = s != nil
}

// RootCmd returns the root cobra.Command for testing purposes.
func RootCmd() *cobra.Command {
	return rootCmd
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

func reader() *chain.Reader { return chain.NewReader(services.Objects) }

func aggregator() *agent.Aggregator { return agent.NewAggregator(reader(), services.Backend) }

func catalog() *skills.Catalog { return skills.NewCatalog(services.Backend, reader()) }

func render(cmd *cobra.Command, data any) {
	fmt.Fprint(cmd.OutOrStdout(), formatter.Format(data))
}

func loadAgent(ctx context.Context, roleID string) (*types.AgentDetail, error) {
	return aggregator().LoadAgent(ctx, roleID, services.Wallet)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.agenthub/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table, json, yaml (default \"table\")")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "agent backend URL")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "Sui full node JSON-RPC URL")
}
