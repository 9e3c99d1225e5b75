// Package repl implements the interactive read-eval-print loop.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/rill-lang/rill/pkg/rill/config"
	"github.com/rill-lang/rill/pkg/rill/evaluator"
	"github.com/rill-lang/rill/pkg/rill/lexer"
	"github.com/rill-lang/rill/pkg/rill/parser"
)

// completionWords are offered by tab completion alongside the user's own
// bindings
var completionWords = []string{
	"let", "fn", "if", "else", "return", "true", "false", "null",
	"update", "sortBy", "fromXlsx", "get", "len", "type",
	"first", "last", "keys", "values", "reverse",
	"gzip", "gunzip", "date", "readFile", "sql",
	"getEnv", "setEnv", "print",
}

// Start runs the interactive loop until EOF or "exit"
func Start(out io.Writer, cfg *config.Config) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	env := evaluator.NewEnvironment()

	line.SetCompleter(func(prefix string) []string {
		var matches []string
		for _, word := range append(completionWords, env.Names()...) {
			if strings.HasPrefix(word, prefix) {
				matches = append(matches, word)
			}
		}
		return matches
	})

	historyPath := historyFile(cfg)
	if f, err := os.Open(historyPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	for {
		input, err := line.Prompt(cfg.Prompt)
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Fprintln(out, "bye")
				break
			}
			fmt.Fprintf(out, "error reading input: %s\n", err)
			break
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		if trimmed == "exit" || trimmed == "quit" {
			fmt.Fprintln(out, "bye")
			break
		}

		line.AppendHistory(input)

		evalLine(out, input, env)
	}

	if f, err := os.Create(historyPath); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}

func evalLine(out io.Writer, input string, env *evaluator.Environment) {
	l := lexer.New(input)
	p := parser.New(l)
	program := p.ParseProgram()

	if errs := p.Errors(); len(errs) > 0 {
		for _, msg := range errs {
			fmt.Fprintf(out, "parse error: %s\n", msg)
		}
		return
	}

	result := evaluator.Eval(program, env)
	if result == nil {
		return
	}
	if errObj, ok := result.(*evaluator.Error); ok {
		fmt.Fprintln(out, errObj.ToRillError().PrettyString())
		return
	}
	if _, isNull := result.(*evaluator.Null); isNull {
		return
	}
	fmt.Fprintln(out, result.Inspect())
}

// historyFile resolves the history path, relative paths landing in the
// user's home directory.
func historyFile(cfg *config.Config) string {
	if filepath.IsAbs(cfg.HistoryFile) {
		return cfg.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return cfg.HistoryFile
	}
	return filepath.Join(home, cfg.HistoryFile)
}
