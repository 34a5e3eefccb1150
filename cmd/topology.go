package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/trackdispatch/app/plugins"
	"github.com/kilianp07/trackdispatch/config"
	"github.com/kilianp07/trackdispatch/core/topology"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Topology related commands",
}

var topologyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the network and report cascade cycles",
	RunE:  runTopologyCheck,
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the built-in backends",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, kind := range []string{"topology", "snapshot", "journal", "metrics"} {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", kind, plugins.Available()[kind])
		}
		return nil
	},
}

func init() {
	topologyCmd.AddCommand(topologyCheckCmd)
	rootCmd.AddCommand(topologyCmd, pluginsCmd)
}

func runTopologyCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	provider, err := topology.NewProvider(cfg.Topology)
	if err != nil {
		return err
	}
	topo, err := topology.Load(ctx, provider, nil)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d places, %d track stretches, %d dispatchers\n",
		len(topo.Places()), len(topo.Stretches()), len(topo.Dispatchers()))
	for _, c := range topo.CascadeCycles() {
		fmt.Fprintf(out, "cascade cycle: places %v over stretches %v\n", c.Places, c.Stretches)
	}
	return nil
}
