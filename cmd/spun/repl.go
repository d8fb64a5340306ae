package main

import "github.com/spf13/cobra"

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive prompt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printNil, _ := cmd.Flags().GetBool("print-nil")
		printRet, _ := cmd.Flags().GetBool("print-ret")
		return startRepl(printNil, printRet)
	},
}
