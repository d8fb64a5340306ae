package main

import "github.com/spf13/cobra"

var dumpASTCmd = &cobra.Command{
	Use:   "dump-ast <file.spn...>",
	Short: "Print the parsed AST of source files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dumpASTFiles(args)
	},
}
