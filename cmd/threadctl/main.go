// Command threadctl is the operator CLI: inspect reply trees and activity, purge
// threads, export the API description and tail the activity stream.
package main

import (
	"context"
	"fmt"
	"os"

	"threadline/internal/bootstrap"
	"threadline/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "threadctl",
	Short:         "Operator tools for Threadline",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "data", Title: "Data Commands:"},
		&cobra.Group{ID: "api", Title: "API Commands:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openRuntime loads configuration and connects to the stores.
func openRuntime(ctx context.Context) (*config.Config, *bootstrap.Runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, nil, err
	}
	return cfg, rt, nil
}
