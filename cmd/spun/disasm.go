package main

import "github.com/spf13/cobra"

var disasmCmd = &cobra.Command{
	Use:   "disasm <file.spo...>",
	Short: "Pretty-print the bytecode of compiled files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return disasmFiles(args)
	},
}
