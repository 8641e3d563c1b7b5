package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DevSymphony/sysop/internal/shell"
	"github.com/DevSymphony/sysop/internal/ui"
	"github.com/DevSymphony/sysop/internal/util/config"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session: type requests in plain words",
	Long: `Start an interactive session. Each line is resolved to an intent and
executed as the logged-in user. The catalogue file is reloaded when it changes.

Commands:
  :record        start recording a macro
  :stop          stop recording
  :save <file>   save the recording (bare names go to macro_dir)
  :play <file>   replay a macro
  :intents       list intents
  :help, :quit`,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	who, err := authenticate(ctx, app)
	if err != nil {
		return err
	}
	if _, err := app.OpenAudit(); err != nil {
		ui.PrintWarn(fmt.Sprintf("Audit log unavailable: %v", err))
	}
	if _, err := app.Watch(ctx); err != nil {
		ui.PrintWarn(fmt.Sprintf("Catalogue hot reload disabled: %v", err))
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(shell.Commands))
	for _, c := range shell.Commands {
		items = append(items, readline.PcItem(c))
	}

	historyFile := ""
	if config.ProjectConfigExists() {
		historyFile = filepath.Join(config.Dir(), "history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptFor(who.Username, false),
		HistoryFile:     historyFile,
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	})
	if err != nil {
		return fmt.Errorf("failed to start line editor: %w", err)
	}
	defer func() { _ = rl.Close() }()

	sh := shell.New(app, who, rl.Stdout(), askParam)
	ui.PrintTitle("sysop", fmt.Sprintf("%s (%s), %d intents. Type :help", who.Username, who.Role, app.Catalogue.Snapshot().Len()))

	for {
		rl.SetPrompt(promptFor(who.Username, sh.Sequencer().Recording()))
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if strings.TrimSpace(line) == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := sh.Handle(ctx, line)
		if err != nil {
			if isPromptAbort(err) {
				continue
			}
			appLog.Debug("shell line failed", zap.Error(err))
			fmt.Fprintln(rl.Stdout(), ui.Error(err.Error()))
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

func promptFor(user string, recording bool) string {
	if recording {
		return fmt.Sprintf("%s [rec]> ", user)
	}
	return user + "> "
}
