package main

import "github.com/spf13/cobra"

var compileCmd = &cobra.Command{
	Use:   "compile <file.spn...>",
	Short: "Compile source files to companion .spo bytecode files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return compileFiles(args)
	},
}
