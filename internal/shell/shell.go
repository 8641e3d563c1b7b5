// Package shell implements the line interpreter behind `sysop shell`.
// Reading lines (readline, history, completion) is left to the caller.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/DevSymphony/sysop/internal/bootstrap"
	"github.com/DevSymphony/sysop/internal/executor"
	"github.com/DevSymphony/sysop/internal/macro"
	"github.com/DevSymphony/sysop/internal/nlu"
	"github.com/DevSymphony/sysop/internal/ui"
	"github.com/DevSymphony/sysop/pkg/schema"
)

// ErrNoAsker is returned when a required parameter is missing and the shell
// has no way to prompt for it.
var ErrNoAsker = errors.New("missing required parameter")

// Asker prompts for a missing parameter value.
type Asker func(p schema.Param) (string, error)

// Commands lists the colon commands, for completion and :help.
var Commands = []string{":record", ":stop", ":save", ":play", ":intents", ":help", ":quit"}

// Shell interprets one line at a time.
type Shell struct {
	app *bootstrap.App
	who bootstrap.Identity
	out io.Writer
	ask Asker
	seq *macro.Sequencer
}

// New returns a shell acting as who. ask may be nil.
func New(app *bootstrap.App, who bootstrap.Identity, out io.Writer, ask Asker) *Shell {
	s := &Shell{app: app, who: who, out: out, ask: ask}
	s.seq = app.NewSequencer(who, s.write)
	return s
}

// Sequencer exposes the macro recorder, mainly for the prompt indicator.
func (s *Shell) Sequencer() *macro.Sequencer { return s.seq }

func (s *Shell) write(chunk string) {
	if executor.IsErrorChunk(chunk) {
		fmt.Fprint(s.out, ui.Error(strings.TrimPrefix(strings.TrimSpace(chunk), executor.ErrorPrefix+" "))+"\n")
		return
	}
	fmt.Fprint(s.out, chunk)
}

// Handle interprets line. quit is true after :quit.
func (s *Shell) Handle(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if strings.HasPrefix(line, ":") {
		return s.command(ctx, strings.Fields(line))
	}
	return false, s.request(ctx, line)
}

func (s *Shell) command(ctx context.Context, fields []string) (bool, error) {
	arg := ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}

	switch fields[0] {
	case ":quit", ":exit", ":q":
		if s.seq.Recording() {
			s.seq.Stop()
			fmt.Fprintln(s.out, ui.Warn("recording discarded"))
		}
		return true, nil

	case ":help":
		fmt.Fprintln(s.out, "Type a request in plain words, e.g. \"ping 8.8.8.8\".")
		fmt.Fprintln(s.out, "Commands: "+strings.Join(Commands, " "))

	case ":record":
		s.seq.Start()
		fmt.Fprintln(s.out, ui.Info("recording started"))

	case ":stop":
		s.seq.Stop()
		fmt.Fprintln(s.out, ui.Info(fmt.Sprintf("recording stopped (%d entries)", len(s.seq.Entries()))))

	case ":save":
		if arg == "" {
			return false, fmt.Errorf("usage: :save <file>")
		}
		path := s.macroPath(arg)
		if err := s.seq.Save(path); err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, ui.OK("macro saved to "+path))

	case ":play":
		if arg == "" {
			return false, fmt.Errorf("usage: :play <file>")
		}
		m, err := macro.Load(s.macroPath(arg))
		if err != nil {
			return false, err
		}
		if err := s.seq.Play(ctx, m); err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, ui.Done(fmt.Sprintf("played %d entries", len(m))))

	case ":intents":
		for _, def := range s.app.Catalogue.Intents() {
			fmt.Fprintf(s.out, "%-32s %s\n", def.ID, def.Description)
		}

	default:
		return false, fmt.Errorf("unknown command %s (try :help)", fields[0])
	}
	return false, nil
}

// macroPath resolves bare file names inside the configured macro directory.
func (s *Shell) macroPath(name string) string {
	if filepath.Base(name) == name {
		return filepath.Join(s.app.Config.MacroDir, name)
	}
	return name
}

func (s *Shell) request(ctx context.Context, line string) error {
	res := s.app.Parser.Parse(line)
	if !res.Matched {
		fmt.Fprintln(s.out, ui.Warn("could not understand the request"))
		for _, c := range s.app.Parser.Matcher().Candidates(line, 3) {
			fmt.Fprintln(s.out, ui.Indent(fmt.Sprintf("did you mean %q (%s)?", c.Phrase, c.Intent)))
		}
		return nil
	}

	def, ok := s.app.Catalogue.Get(res.Intent)
	if !ok {
		return fmt.Errorf("intent %s disappeared during reload", res.Intent)
	}

	params := res.Params
	for _, p := range nlu.Missing(def, params) {
		if s.ask == nil {
			return fmt.Errorf("%w '%s' for intent '%s'", ErrNoAsker, p.Name, def.ID)
		}
		v, err := s.ask(p)
		if err != nil {
			return err
		}
		params[p.Name] = v
	}

	fmt.Fprintln(s.out, ui.Info(def.ID))
	if err := s.app.Run(ctx, s.who, def.ID, params, s.write); err != nil {
		return err
	}
	if s.seq.Recording() {
		s.seq.Record(def.ID, params)
	}
	return nil
}
