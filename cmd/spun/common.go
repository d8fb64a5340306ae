package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"spun/internal/bytecode"
	"spun/internal/compiler"
	"spun/internal/engine"
	"spun/internal/lexer"
	"spun/internal/object"
	"spun/internal/parser"
	"spun/internal/repl"
	"spun/internal/stdlib"
)

// newContext builds an engine.Context with the native library
// installed, the entry point every mode shares.
func newContext() *engine.Context {
	ctx := engine.New()
	stdlib.Register(ctx)
	return ctx
}

// readSource loads a script file's text. The lexer itself strips a
// leading `#!` shebang line per spec.md §6, so the CLI just reads raw.
func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func runFile(path string, scriptArgs []string) error {
	if strings.HasSuffix(path, ".spo") {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		ctx := newContext()
		_, err = ctx.LoadBinary(data, toValues(scriptArgs))
		if err != nil {
			return err
		}
		return nil
	}

	src, err := readSource(path)
	if err != nil {
		return err
	}
	ctx := newContext()
	_, err = ctx.Load(path, src, toValues(scriptArgs))
	return err
}

func toValues(args []string) []object.Value {
	vals := make([]object.Value, len(args))
	for i, a := range args {
		vals[i] = object.NewString(a)
	}
	return vals
}

func startRepl(printNil, printRet bool) error {
	ctx := newContext()
	return repl.Run(ctx, repl.Options{PrintNil: printNil, PrintRet: printRet})
}

// executeStrings treats each positional argument as a standalone
// top-level program, per spec.md §6's `--execute`.
func executeStrings(sources []string, printRet bool) error {
	ctx := newContext()
	for i, src := range sources {
		name := fmt.Sprintf("<arg:%d>", i)
		v, err := ctx.Load(name, src, nil)
		if err != nil {
			return err
		}
		if printRet {
			fmt.Println(v.String())
		}
	}
	return nil
}

// compileFiles compiles each path to a companion .spo file. A failing
// file reports its error and the batch keeps going, per SPEC_FULL.md's
// --compile batch-mode supplement; the command only reports failure
// once every file has been attempted.
func compileFiles(paths []string) error {
	failed := 0
	for _, path := range paths {
		if err := compileOneFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to compile", failed, len(paths))
	}
	return nil
}

func compileOneFile(path string) error {
	src, err := readSource(path)
	if err != nil {
		return err
	}
	toks, err := lexer.New(path, src).ScanAll()
	if err != nil {
		return err
	}
	stmts, err := parser.New(path, toks).Parse()
	if err != nil {
		return err
	}
	prog, err := compiler.Compile(path, stmts)
	if err != nil {
		return err
	}
	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".spo"
	return os.WriteFile(out, bytecode.Serialize(prog), 0644)
}

func disasmFiles(paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		prog, err := bytecode.Deserialize(data)
		if err != nil {
			return err
		}
		fmt.Println(bytecode.Disassemble(prog))
	}
	return nil
}

func dumpASTFiles(paths []string) error {
	for _, path := range paths {
		src, err := readSource(path)
		if err != nil {
			return err
		}
		toks, err := lexer.New(path, src).ScanAll()
		if err != nil {
			return err
		}
		stmts, err := parser.New(path, toks).Parse()
		if err != nil {
			return err
		}
		fmt.Print(parser.Dump(stmts))
	}
	return nil
}
