package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/codemaster/internal/config"
	"github.com/michaelbrown/codemaster/internal/llm"
	"github.com/michaelbrown/codemaster/internal/storage"
	"github.com/michaelbrown/codemaster/internal/storage/sqlite"
)

var (
	statusFilter string
	limitFlag    int
	exportFormat string
	exportOutput string
	forceFlag    bool
	resumeID     string
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session", "s"},
	Short:   "Manage chat sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show session details and messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsResumeCmd = &cobra.Command{
	Use:   "resume <session-id>",
	Short: "Resume a previous session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resumeID = args[0]
		return runChat(cmd, args)
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session as markdown or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsExport,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsResumeCmd, sessionsDeleteCmd, sessionsExportCmd)

	sessionsListCmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (active, archived)")
	sessionsListCmd.Flags().IntVar(&limitFlag, "limit", 20, "Max sessions to show")

	sessionsExportCmd.Flags().StringVar(&exportFormat, "format", "md", "Export format: md or json")
	sessionsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")

	sessionsDeleteCmd.Flags().BoolVar(&forceFlag, "force", false, "Skip confirmation")
}

func openStore() (storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return sqlite.Open(cfg.Storage.DBPath)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := storage.SessionListOptions{
		Status: storage.SessionStatus(statusFilter),
		Limit:  limitFlag,
	}

	sessions, err := store.ListSessions(context.Background(), opts)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("%-10s %-10s %-40s %-24s %s\n", "ID", "STATUS", "TITLE", "MODEL", "UPDATED")
	fmt.Println(strings.Repeat("─", 100))

	for _, s := range sessions {
		title := s.Title
		if len(title) > 38 {
			title = title[:38] + ".."
		}
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%-10s %-10s %-40s %-24s %s\n",
			s.ID[:8], s.Status, title, s.Model, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	sess, err := store.GetSession(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Session:     %s\n", sess.ID)
	fmt.Printf("Title:       %s\n", sess.Title)
	fmt.Printf("Status:      %s\n", sess.Status)
	fmt.Printf("Provider:    %s\n", sess.Provider)
	fmt.Printf("Model:       %s\n", sess.Model)
	fmt.Printf("Temperature: %g\n", sess.Temperature)
	fmt.Printf("Created:     %s\n", sess.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Println()

	messages, err := store.LoadMessages(ctx, sess.ID)
	if err != nil {
		return err
	}
	for _, m := range messages {
		switch m.Role {
		case llm.RoleUser:
			fmt.Printf("\033[36myou>\033[0m %s\n\n", m.Content)
		case llm.RoleAssistant:
			fmt.Printf("\033[32mcodemaster>\033[0m %s\n\n", m.Content)
		}
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	sess, err := store.GetSession(ctx, args[0])
	if err != nil {
		return err
	}

	if !forceFlag {
		fmt.Printf("Delete session %s (%q)? [y/N] ", sess.ID[:8], sess.Title)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := store.DeleteSession(ctx, sess.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s.\n", sess.ID[:8])
	return nil
}

func runSessionsExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	sess, err := store.GetSession(ctx, args[0])
	if err != nil {
		return err
	}
	messages, err := store.LoadMessages(ctx, sess.ID)
	if err != nil {
		return err
	}

	var data []byte
	switch exportFormat {
	case "md":
		data = []byte(storage.ExportMarkdown(sess, messages))
	case "json":
		data, err = storage.ExportJSON(sess, messages)
		if err != nil {
			return fmt.Errorf("exporting JSON: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q (use md or json)", exportFormat)
	}

	if exportOutput == "" {
		fmt.Print(string(data))
		return nil
	}
	if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Printf("Exported session %s to %s.\n", sess.ID[:8], exportOutput)
	return nil
}
