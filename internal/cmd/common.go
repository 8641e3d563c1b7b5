package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/manifoldco/promptui"

	"github.com/DevSymphony/sysop/internal/auth"
	"github.com/DevSymphony/sysop/internal/bootstrap"
	userconfig "github.com/DevSymphony/sysop/internal/config"
	"github.com/DevSymphony/sysop/internal/executor"
	"github.com/DevSymphony/sysop/internal/extract"
	"github.com/DevSymphony/sysop/internal/ui"
	"github.com/DevSymphony/sysop/internal/util/config"
	"github.com/DevSymphony/sysop/pkg/schema"
)

// openApp builds the App from the loaded project config.
func openApp() (*bootstrap.App, error) {
	return bootstrap.New(projectCfg, appLog)
}

// parseParamFlags turns repeated name=value flags into a map.
func parseParamFlags(values []string) (map[string]string, error) {
	params := make(map[string]string, len(values))
	for _, kv := range values {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", kv)
		}
		params[name] = value
	}
	return params, nil
}

// sortedKeys returns map keys in order for stable output.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// printChunk writes streamed output, showing failure chunks as errors.
func printChunk(chunk string) {
	if executor.IsErrorChunk(chunk) {
		msg := strings.TrimPrefix(strings.TrimSpace(chunk), executor.ErrorPrefix)
		fmt.Fprintln(os.Stderr, ui.Error(strings.TrimSpace(msg)))
		return
	}
	fmt.Print(chunk)
}

// authenticate returns the caller identity from a valid login session or
// by prompting for credentials.
func authenticate(ctx context.Context, app *bootstrap.App) (bootstrap.Identity, error) {
	store, err := app.OpenUsers()
	if err != nil {
		return bootstrap.Identity{}, err
	}

	if sess, err := currentSession(); err == nil {
		role, err := store.Role(ctx, sess.Username)
		if err == nil {
			appLog.Debug("using login session")
			return bootstrap.Identity{Username: sess.Username, Role: role}, nil
		}
		ui.PrintWarn(fmt.Sprintf("Stored session is no longer valid: %v", err))
	}

	username, password, err := promptCredentials()
	if err != nil {
		return bootstrap.Identity{}, err
	}
	role, err := store.Verify(ctx, username, password)
	if err != nil {
		return bootstrap.Identity{}, err
	}
	return bootstrap.Identity{Username: username, Role: role}, nil
}

// currentSession opens the sealed login session, if any.
func currentSession() (auth.Session, error) {
	blob, err := userconfig.LoadSession()
	if err != nil {
		return auth.Session{}, err
	}
	sealer, _, err := auth.LoadOrCreateSealer(config.GetSecretKeyPath())
	if err != nil {
		return auth.Session{}, err
	}
	return auth.OpenSession(sealer, blob, time.Now())
}

func promptCredentials() (string, string, error) {
	userCfg, _ := userconfig.LoadConfig()
	def := ""
	if userCfg != nil {
		def = userCfg.DefaultUser
	}

	var username string
	if err := survey.AskOne(&survey.Input{Message: "Username:", Default: def}, &username, survey.WithValidator(survey.Required)); err != nil {
		return "", "", err
	}
	var password string
	if err := survey.AskOne(&survey.Password{Message: "Password:"}, &password); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(username), password, nil
}

// askParam prompts for one missing parameter.
func askParam(p schema.Param) (string, error) {
	label := p.Name
	if p.Example != "" {
		label = fmt.Sprintf("%s (e.g. %s)", p.Name, p.Example)
	}

	switch p.Kind {
	case schema.KindPassword:
		var value string
		err := survey.AskOne(&survey.Password{Message: label + ":"}, &value, survey.WithValidator(survey.Required))
		return value, err

	case schema.KindChoice:
		sel := promptui.Select{
			Label:     label,
			Items:     p.Choices,
			Templates: selectTemplates,
		}
		_, value, err := sel.Run()
		return value, err
	}

	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			return extract.ValidateValue(p.ParameterSpec, input)
		},
	}
	if p.Default != nil {
		prompt.Default = *p.Default
	}
	value, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

var selectTemplates = &promptui.SelectTemplates{
	Label:    "{{ . }}?",
	Active:   "▸ {{ . | cyan }}",
	Inactive: "  {{ . }}",
	Selected: "✓ {{ . | green }}",
}

// isPromptAbort reports a Ctrl-C/Ctrl-D from promptui or survey.
func isPromptAbort(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || err.Error() == "interrupt"
}
