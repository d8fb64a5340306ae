package main

import "github.com/spf13/cobra"

var runCmd = &cobra.Command{
	Use:   "run <file.spn|file.spo> [script-args...]",
	Short: "Execute a script file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFile(args[0], args[1:])
	},
}
