package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/codemaster/internal/chat"
	"github.com/michaelbrown/codemaster/internal/codeblock"
	"github.com/michaelbrown/codemaster/internal/config"
	"github.com/michaelbrown/codemaster/internal/llm"
	"github.com/michaelbrown/codemaster/internal/runner"
	"github.com/michaelbrown/codemaster/internal/storage"
	"github.com/michaelbrown/codemaster/internal/storage/sqlite"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive conversation with the coding assistant.

Code blocks in replies are numbered; /run <n> executes block n in the
sandbox and prints the captured output.

Examples:
  codemaster chat
  codemaster chat --provider ollama --model qwen3:8b`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// replState is the mutable state of one REPL: the conversation, its stored
// session, and the code blocks of the latest assistant reply.
type replState struct {
	conv   *chat.Conversation
	svc    *runner.Service
	cfg    *config.Config
	store  storage.Store
	sess   *storage.Session
	blocks []codeblock.Block
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Load assistant profile if specified
	var profile *chat.Profile
	if profileFlag != "" {
		profilePath := filepath.Join(cfg.Chat.ProfilesDir, profileFlag+".yaml")
		profile, err = chat.LoadProfile(profilePath)
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
	}

	providerName := providerFlag
	if providerName == "" {
		if profile != nil && profile.Provider != "" {
			providerName = profile.Provider
		} else {
			providerName = cfg.DefaultProvider
		}
	}

	provider, err := cfg.Provider(providerName)
	if err != nil {
		return err
	}

	model := modelFlag
	if model == "" {
		if profile != nil && profile.Model != "" {
			model = profile.Model
		} else {
			model = provider.Models["default"]
		}
	}

	sampling := llm.Sampling{
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
	}
	if profile != nil {
		if profile.Temperature > 0 {
			sampling.Temperature = profile.Temperature
		}
		if profile.MaxTokens > 0 {
			sampling.MaxTokens = profile.MaxTokens
		}
	}

	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	client := llm.NewClient(provider.BaseURL, provider.APIKey, model, sampling)
	conv := chat.New(client, cfg.Chat.HistoryWindow)
	if profile != nil {
		conv.SetSystemPrompt(profile.SystemPrompt)
	}

	st := &replState{
		conv:  conv,
		svc:   runner.NewService(cfg.RunnerOptions()),
		cfg:   cfg,
		store: store,
	}

	// Resume a stored session or start a fresh one
	if resumeID != "" {
		sess, err := store.GetSession(context.Background(), resumeID)
		if err != nil {
			return err
		}
		messages, err := store.LoadMessages(context.Background(), sess.ID)
		if err != nil {
			return fmt.Errorf("loading messages: %w", err)
		}
		conv.SetHistory(messages)
		st.sess = sess
		st.blocks = codeblock.Extract(conv.LastAssistant())
		fmt.Printf("Resumed session %s (%d messages)\n", sess.ID[:8], len(messages))
	} else {
		st.sess = &storage.Session{
			ID:          uuid.New().String(),
			Status:      storage.StatusActive,
			Provider:    providerName,
			Model:       model,
			Temperature: sampling.Temperature,
			MaxTokens:   sampling.MaxTokens,
		}
		if err := store.CreateSession(context.Background(), st.sess); err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
	}

	fmt.Printf("CodeMaster - Interactive Coding Assistant\n")
	if profile != nil {
		fmt.Printf("Profile: %s\n", profile.Name)
	}
	fmt.Printf("Provider: %s | Model: %s\n", providerName, model)
	fmt.Printf("Type /help for commands, /quit to exit\n\n")

	// Set up readline for input with history
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36myou>\033[0m ",
		HistoryFile:     "/tmp/codemaster_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	// Per-request cancellation: Ctrl+C cancels the active LLM request or
	// snippet run, not the whole app.
	var reqCancel context.CancelFunc
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for range sigCh {
			if reqCancel != nil {
				reqCancel()
			}
		}
	}()

	for {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// Handle slash commands
		if strings.HasPrefix(input, "/") {
			reqCtx, cancel := context.WithCancel(context.Background())
			reqCancel = cancel
			st.handleCommand(reqCtx, input)
			cancel()
			reqCancel = nil
			continue
		}

		// Create a per-request context so Ctrl+C only cancels this request
		reqCtx, cancel := context.WithCancel(context.Background())
		reqCancel = cancel

		fmt.Printf("\n\033[32mcodemaster>\033[0m ")
		reply, err := st.conv.SendStreaming(reqCtx, input, func(delta string) {
			fmt.Print(delta)
		})
		wasInterrupted := reqCtx.Err() != nil
		cancel()
		reqCancel = nil

		if err != nil {
			if wasInterrupted {
				fmt.Println("\n(interrupted)")
				continue
			}
			fmt.Printf("\n\033[31merror: %s\033[0m\n\n", err)
			continue
		}
		fmt.Printf("\n")

		st.blocks = codeblock.Extract(reply)
		st.printBlockSummary()
		st.persist()
		fmt.Println()
	}
}

// printBlockSummary lists executable code blocks from the latest reply.
func (st *replState) printBlockSummary() {
	if len(st.blocks) == 0 {
		return
	}
	executable := st.svc.Languages()
	fmt.Println()
	for i, b := range st.blocks {
		runnable := ""
		for _, lang := range executable {
			if string(lang) == b.Language {
				runnable = fmt.Sprintf("  \033[90mrun with /run %d\033[0m", i+1)
			}
		}
		fmt.Printf("  \033[33m[%d] %s (%d lines)\033[0m%s\n", i+1, b.Language, b.Lines(), runnable)
	}
}

// persist saves title and history; failures are logged, not fatal to the REPL.
func (st *replState) persist() {
	ctx := context.Background()
	if st.sess.Title == "" {
		for _, m := range st.conv.History() {
			if m.Role == llm.RoleUser {
				st.sess.Title = m.Content
				if len(st.sess.Title) > 80 {
					st.sess.Title = st.sess.Title[:80] + "..."
				}
				break
			}
		}
		if err := st.store.UpdateSession(ctx, st.sess); err != nil {
			log.Printf("updating session: %v", err)
		}
	}
	if err := st.store.SaveMessages(ctx, st.sess.ID, st.conv.History()); err != nil {
		log.Printf("saving messages: %v", err)
	}
}

func (st *replState) handleCommand(ctx context.Context, input string) {
	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit", "/q":
		fmt.Println("Goodbye!")
		os.Exit(0)
	case "/reset":
		st.conv.Reset()
		st.blocks = nil
		fmt.Println("Conversation reset.")
		fmt.Println()
	case "/blocks":
		if len(st.blocks) == 0 {
			fmt.Println("No code blocks in the last reply.")
		}
		st.printBlockSummary()
		fmt.Println()
	case "/run":
		st.runBlock(ctx, fields[1:])
	case "/history":
		for _, m := range st.conv.History() {
			fmt.Printf("[%s] %s\n", m.Role, m.Content)
		}
		fmt.Println()
	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /help     - Show this help")
		fmt.Println("  /blocks   - List code blocks in the last reply")
		fmt.Println("  /run <n>  - Execute code block n in the sandbox")
		fmt.Println("  /reset    - Clear conversation history")
		fmt.Println("  /history  - Show conversation history")
		fmt.Println("  /quit     - Exit")
		fmt.Println()
	default:
		fmt.Printf("Unknown command: %s (try /help)\n\n", fields[0])
	}
}

// runBlock executes one numbered code block from the latest reply.
func (st *replState) runBlock(ctx context.Context, args []string) {
	if len(st.blocks) == 0 {
		fmt.Println("No code blocks to run.")
		fmt.Println()
		return
	}

	n := 1
	if len(args) > 0 {
		var err error
		n, err = strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(st.blocks) {
			fmt.Printf("Pick a block between 1 and %d.\n\n", len(st.blocks))
			return
		}
	}
	block := st.blocks[n-1]

	fmt.Printf("\033[33m⚡ running block %d (%s)\033[0m\n", n, block.Language)
	res, err := st.svc.Execute(ctx, runner.Request{
		Language:       runner.Language(block.Language),
		Source:         block.Code,
		TimeoutSeconds: st.cfg.RunnerTimeoutSeconds(),
	})
	if err != nil {
		fmt.Printf("\033[31merror: %s\033[0m\n\n", err)
		return
	}
	printResult(os.Stdout, res)
	fmt.Println()
}
