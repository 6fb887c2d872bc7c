package commands

import (
	"context"
	"fmt"

	"github.com/anemonelab/agenthub/core/cvm"
	"github.com/anemonelab/agenthub/core/types"
	"github.com/spf13/cobra"
)

type statsView struct {
	Online  bool
	OS      string
	Kernel  string
	CPUs    int
	Memory  string `table:"MEMORY USED"`
	Disk    string `table:"DISK USED"`
	Uptime  string
	Loadavg string
}

type attestationView struct {
	Online       bool
	Public       bool
	Certificates int
	Events       int
	Error        string
}

type containerRow struct {
	Name   string
	Image  string
	State  string
	Status string
}

// poller loads the agent and returns a poller for its CVM.
func poller(ctx context.Context, roleID string) (*cvm.Poller, *types.AgentDetail, error) {
	detail, err := loadAgent(ctx, roleID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load agent: %w", err)
	}
	appID := ""
	if detail.Role != nil {
		appID = detail.Role.AppID
	}
	return cvm.NewPoller(appID, services.Backend), detail, nil
}

func cvmSectionCmd(section cvm.Section, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(section) + " <role-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			p, _, err := poller(ctx, args[0])
			if err != nil {
				return err
			}
			defer p.Close()
			if err := p.Refresh(ctx, section); err != nil {
				return fmt.Errorf("failed to fetch %s: %w", section, err)
			}
			renderSection(cmd, p.View(), section)
			return nil
		},
	}
}

func renderSection(cmd *cobra.Command, v cvm.View, section cvm.Section) {
	if (section == cvm.Stats && v.Stats == nil) ||
		(section == cvm.Attestation && v.Attestation == nil) ||
		(section == cvm.Composition && v.Composition == nil) {
		fmt.Fprintln(cmd.OutOrStdout(), "No data.")
		return
	}
	switch section {
	case cvm.Stats:
		if !isTable() {
			render(cmd, v.Stats)
			return
		}
		si := v.Stats.SysInfo
		render(cmd, statsView{
			Online:  v.Stats.IsOnline,
			OS:      si.OSName + " " + si.OSVersion,
			Kernel:  si.KernelVersion,
			CPUs:    si.NumCPUs,
			Memory:  fmt.Sprintf("%.1f%% of %s GB", si.MemoryUsagePercent(), types.BytesToGB(si.TotalMemory)),
			Disk:    fmt.Sprintf("%.1f%%", si.DiskUsagePercent()),
			Uptime:  types.FormatUptime(si.Uptime),
			Loadavg: fmt.Sprintf("%.2f %.2f %.2f", si.LoadavgOne, si.LoadavgFive, si.LoadavgFifteen),
		})
	case cvm.Attestation:
		if !isTable() {
			render(cmd, v.Attestation)
			return
		}
		a := v.Attestation
		events := 0
		if a.TcbInfo != nil {
			events = len(a.TcbInfo.NamedEvents())
		}
		render(cmd, attestationView{
			Online:       a.IsOnline,
			Public:       a.IsPublic,
			Certificates: len(a.AppCertificates),
			Events:       events,
			Error:        a.Error,
		})
	case cvm.Composition:
		if !isTable() {
			render(cmd, v.Composition)
			return
		}
		rows := make([]containerRow, 0, len(v.Composition.Containers))
		for _, c := range v.Composition.Containers {
			rows = append(rows, containerRow{Name: c.Name, Image: c.Image, State: c.State, Status: c.Status})
		}
		render(cmd, rows)
	}
}

func cvmControlCmd(use, short string, op func(*cvm.Poller, context.Context, bool) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <role-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			p, detail, err := poller(ctx, args[0])
			if err != nil {
				return err
			}
			defer p.Close()
			if err := op(p, ctx, detail.IsOwner); err != nil {
				return fmt.Errorf("failed to %s CVM: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "CVM %s requested for %s.\n", use, p.AppID())
			return nil
		},
	}
}

var cvmCmd = &cobra.Command{
	Use:   "cvm",
	Short: "Inspect and control an agent's confidential VM",
}

func init() {
	cvmCmd.AddCommand(cvmSectionCmd(cvm.Stats, "Show system statistics"))
	cvmCmd.AddCommand(cvmSectionCmd(cvm.Attestation, "Show the attestation report"))
	cvmCmd.AddCommand(cvmSectionCmd(cvm.Composition, "List the running containers"))
	cvmCmd.AddCommand(cvmControlCmd("start", "Start the CVM (owner only)", (*cvm.Poller).Start))
	cvmCmd.AddCommand(cvmControlCmd("stop", "Stop the CVM (owner only)", (*cvm.Poller).Stop))
	rootCmd.AddCommand(cvmCmd)
}
