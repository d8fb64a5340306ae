// Package repl implements the interactive prompt: multi-line
// statement buffering, colorized error/value output, and the
// --print-nil/--print-ret flags.
package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"spun/internal/engine"
	"spun/internal/object"
)

// Options configures prompt behavior, mirroring the original CLI's
// --print-nil/--print-ret flags.
type Options struct {
	PrintNil bool // print nil return values instead of suppressing them
	PrintRet bool // print the return value of every evaluated line
}

var (
	errColor = color.New(color.FgRed)
	valColor = color.New(color.FgGreen)
)

// Run drives the interactive loop against ctx until EOF (Ctrl-D) or an
// interrupt (Ctrl-C) at an empty prompt.
func Run(ctx *engine.Context, opts Options) error {
	colorEnabled := isatty.IsTerminal(os.Stdout.Fd())
	if !colorEnabled {
		color.NoColor = true
	}

	rl, err := readline.New(">>> ")
	if err != nil {
		return fmt.Errorf("repl: %w", err)
	}
	defer rl.Close()

	var buf strings.Builder
	lineNo := 0
	for {
		prompt := ">>> "
		if buf.Len() > 0 {
			prompt = "... "
		}
		rl.SetPrompt(prompt)

		line, err := rl.Readline()
		if err == io.EOF {
			return nil
		}
		if err == readline.ErrInterrupt {
			if buf.Len() == 0 {
				return nil
			}
			buf.Reset()
			continue
		}
		if err != nil {
			return err
		}

		buf.WriteString(line)
		buf.WriteString("\n")

		if !looksComplete(buf.String()) {
			continue
		}

		src := buf.String()
		buf.Reset()
		lineNo++
		evalLine(ctx, fmt.Sprintf("<repl:%d>", lineNo), src, opts)
	}
}

// looksComplete is a pragmatic heuristic, not a real parse: a line is
// considered a complete statement once its braces/parens/brackets
// balance, matching the original's USE_READLINE multi-line buffering
// without re-implementing a speculative parser.
func looksComplete(src string) bool {
	depth := 0
	inString := false
	var strDelim byte
	escaped := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
			} else if c == strDelim {
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			strDelim = c
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		}
	}
	return depth <= 0
}

func evalLine(ctx *engine.Context, name, src string, opts Options) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return
	}

	var v object.Value
	var err error
	if looksLikeStatement(trimmed) {
		v, err = ctx.Load(name, src, nil)
	} else {
		p, cerr := ctx.CompileExpression(name, trimmed)
		if cerr != nil {
			// Fall back to treating it as a statement; a bare expression
			// that also happens to parse as a statement (e.g. a call)
			// should still work without the synthetic `return (...)`.
			v, err = ctx.Load(name, src, nil)
		} else {
			v, err = ctx.Exec(p, nil)
		}
	}

	if err != nil {
		errColor.Fprintln(os.Stderr, err.Error())
		return
	}
	if v.IsNil() && !opts.PrintNil && !opts.PrintRet {
		return
	}
	valColor.Println(v.String())
}

// looksLikeStatement reports whether src is better compiled as a
// top-level statement list than wrapped in a synthesized `return`,
// namely declarations and control-flow keywords.
func looksLikeStatement(src string) bool {
	for _, kw := range []string{"var ", "const ", "if ", "while ", "do ", "for ", "fn ", "return", "break", "continue"} {
		if strings.HasPrefix(src, kw) {
			return true
		}
	}
	return false
}
