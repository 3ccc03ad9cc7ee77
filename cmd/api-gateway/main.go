package main

import (
	"os"

	"github.com/spf13/cobra"
)

// @title Test Generator API
// @version 1.0.0
// @description Question bank, test assembly, PDF export, assignment and student approval for teachers.
// @BasePath /api
// @schemes http https

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "api-gateway",
		Short:        "Test paper generator HTTP API",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, seedCmd())

	// serve is the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.Int("port", 0, "HTTP listen port (overrides PORT)")
	f.String("env", "", "Runtime environment (overrides ENV)")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and load the sample question bank",
		RunE:  runSeed,
	}
}
