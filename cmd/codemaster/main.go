package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	providerFlag string
	modelFlag    string
	profileFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "codemaster",
	Short: "CodeMaster - LLM coding assistant with sandboxed code execution",
	Long: `CodeMaster is a coding assistant backed by an OpenAI-compatible LLM.

Assistant replies that contain code blocks can be executed on the spot:
snippets run in isolated temporary workspaces with a hard wall-clock timeout
and capped output, so untrusted code can neither hang the session nor leave
files behind.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "LLM provider (groq, ollama)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model to use (overrides config)")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "Assistant profile to use (e.g. default, reviewer)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
