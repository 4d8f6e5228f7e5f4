package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/codemaster/internal/config"
	"github.com/michaelbrown/codemaster/internal/runner"
)

var (
	langFlag    string
	timeoutFlag int
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Execute a snippet in the sandbox",
	Long: `Execute a source file (or stdin) through the sandboxed runner and print
the captured output.

The language is inferred from the file extension (.py, .js) unless --lang
is given. Reading from stdin requires --lang.

Examples:
  codemaster run script.py
  codemaster run --lang javascript --timeout 5 snippet.js
  echo 'print(1+1)' | codemaster run --lang python`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&langFlag, "lang", "", "Snippet language (python, javascript)")
	runCmd.Flags().IntVar(&timeoutFlag, "timeout", 0, "Timeout in seconds (default from config)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var source []byte
	lang := runner.Language(langFlag)

	if len(args) == 1 {
		source, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading snippet: %w", err)
		}
		if lang == "" {
			lang = languageFromExtension(args[0])
			if lang == "" {
				return fmt.Errorf("cannot infer language from %q, use --lang", args[0])
			}
		}
	} else {
		if lang == "" {
			return fmt.Errorf("--lang is required when reading from stdin")
		}
		source, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	timeout := timeoutFlag
	if timeout == 0 {
		timeout = cfg.RunnerTimeoutSeconds()
	}

	svc := runner.NewService(cfg.RunnerOptions())
	res, err := svc.Execute(cmd.Context(), runner.Request{
		Language:       lang,
		Source:         string(source),
		TimeoutSeconds: timeout,
	})
	if err != nil {
		return err
	}

	printResult(os.Stdout, res)
	return nil
}

func languageFromExtension(path string) runner.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return runner.LangPython
	case ".js":
		return runner.LangJavaScript
	default:
		return ""
	}
}

// printResult renders an execution result for the terminal. Shared with the
// chat REPL's /run command.
func printResult(w io.Writer, res *runner.Result) {
	if res.Stdout != "" {
		fmt.Fprint(w, res.Stdout)
		if !strings.HasSuffix(res.Stdout, "\n") {
			fmt.Fprintln(w)
		}
	}
	if res.StdoutTruncated {
		fmt.Fprintln(w, "... (stdout truncated)")
	}
	if res.Stderr != "" {
		fmt.Fprintf(w, "\033[31m%s\033[0m", res.Stderr)
		if !strings.HasSuffix(res.Stderr, "\n") {
			fmt.Fprintln(w)
		}
	}
	if res.StderrTruncated {
		fmt.Fprintln(w, "... (stderr truncated)")
	}

	switch {
	case res.TimedOut:
		fmt.Fprintf(w, "\033[33m(timed out after %s)\033[0m\n", res.Duration.Round(time.Millisecond))
	case res.ExitCode != nil && *res.ExitCode != 0:
		fmt.Fprintf(w, "\033[31m(exit code %d, %s)\033[0m\n", *res.ExitCode, res.Duration.Round(time.Millisecond))
	default:
		fmt.Fprintf(w, "\033[90m(ok, %s)\033[0m\n", res.Duration.Round(time.Millisecond))
	}
}
