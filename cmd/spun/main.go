// Command spun is the single-binary CLI: a cobra command tree
// (run/repl/compile/disasm/dump-ast) plus the historical single-dash
// flag surface of the original `spn` binary, accepted as aliases so
// existing invocations keep working.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "spun [file] [script-args...]",
	Short: "A small register-based scripting language",
	Long: `spun compiles and runs ".spn" scripts against a register-based
bytecode VM. With no file and no subcommand it opens a REPL; with a
file it executes that file, passing any remaining arguments through
to the script as positional arguments (#0, #1, ...).`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	rootCmd.PersistentFlags().BoolP("print-nil", "n", false, "print nil return values in the REPL")
	rootCmd.PersistentFlags().BoolP("print-ret", "t", false, "print the return value of every executed line or string")

	rootCmd.Flags().BoolP("execute", "e", false, "treat the remaining arguments as source strings, not a file path")
	rootCmd.Flags().BoolP("compile", "c", false, "compile each source file argument to a companion .spo file")
	rootCmd.Flags().BoolP("disasm", "d", false, "disassemble each bytecode file argument")
	rootCmd.Flags().BoolP("dump-ast", "a", false, "print the parsed AST of each source file argument")

	rootCmd.AddCommand(runCmd, replCmd, compileCmd, disasmCmd, dumpASTCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runRoot implements the historical single-binary surface: the four
// mutually-exclusive mode flags dispatch to the same logic the
// matching subcommand uses; with none set, a bare file argument
// executes, and no arguments at all opens the REPL.
func runRoot(cmd *cobra.Command, args []string) error {
	exec, _ := cmd.Flags().GetBool("execute")
	compile, _ := cmd.Flags().GetBool("compile")
	disasm, _ := cmd.Flags().GetBool("disasm")
	dumpAST, _ := cmd.Flags().GetBool("dump-ast")

	set := 0
	for _, b := range []bool{exec, compile, disasm, dumpAST} {
		if b {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("--execute, --compile, --disasm, and --dump-ast are mutually exclusive")
	}

	printNil, _ := cmd.Flags().GetBool("print-nil")
	printRet, _ := cmd.Flags().GetBool("print-ret")

	switch {
	case exec:
		return executeStrings(args, printRet)
	case compile:
		return compileFiles(args)
	case disasm:
		return disasmFiles(args)
	case dumpAST:
		return dumpASTFiles(args)
	case len(args) == 0:
		return startRepl(printNil, printRet)
	default:
		return runFile(args[0], args[1:])
	}
}
