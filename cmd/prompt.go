package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/deckhand-io/deckhand/config"
	"github.com/deckhand-io/deckhand/domain"
)

// Prompter collects interactive answers. It exists only at the process
// boundary: the workflow itself consumes a fully-assembled Settings value
// and never blocks on input.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads from stdin and writes to stdout.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stdout)
}

// NewPrompterWithIO allows tests to script the conversation.
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prompts for a value, returning the default when the answer is empty.
func (p *Prompter) Ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}

	answer := strings.TrimSpace(line)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskInt prompts for an integer value.
func (p *Prompter) AskInt(label string, def int) (int, error) {
	defStr := ""
	if def != 0 {
		defStr = strconv.Itoa(def)
	}

	answer, err := p.Ask(label, defStr)
	if err != nil {
		return 0, err
	}
	if answer == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", label, err)
	}
	return value, nil
}

// AskSecret prompts for credential material without echoing it when stdin
// is a terminal.
func (p *Prompter) AskSecret(label string) (domain.Secret, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(p.out, "%s: ", label)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", label, err)
		}
		return domain.NewSecret(strings.TrimSpace(string(raw))), nil
	}

	answer, err := p.Ask(label, "")
	if err != nil {
		return "", err
	}
	return domain.NewSecret(answer), nil
}

// Confirm asks a yes/no question; only an explicit yes answers true.
func (p *Prompter) Confirm(label string) bool {
	answer, err := p.Ask(label+" [y/N]", "")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// fillSettings prompts for every required value still missing after config
// file and defaults. In non-interactive mode a missing value is a fatal
// error with its own exit code instead of a blocked prompt.
func fillSettings(settings *config.Settings, prompter *Prompter, nonInteractive bool) error {
	if nonInteractive {
		if missing := settings.Missing(); len(missing) > 0 {
			return domain.Stepf("input", domain.ExitMissingParameter,
				"missing required parameter(s) in non-interactive mode: %s",
				strings.Join(missing, ", "))
		}
		return nil
	}

	var err error
	if settings.Repository.URL == "" {
		if settings.Repository.URL, err = prompter.Ask("Repository URL", ""); err != nil {
			return err
		}
	}
	if settings.Repository.Token.IsZero() {
		if settings.Repository.Token, err = prompter.AskSecret("Access token"); err != nil {
			return err
		}
	}
	if settings.Repository.Branch == "" {
		branch, askErr := prompter.Ask("Branch", config.DefaultBranch)
		if askErr != nil {
			return askErr
		}
		settings.Repository.Branch = branch
	}
	if settings.Target.User == "" {
		if settings.Target.User, err = prompter.Ask("Remote user", ""); err != nil {
			return err
		}
	}
	if settings.Target.Host == "" {
		if settings.Target.Host, err = prompter.Ask("Remote host or IP", ""); err != nil {
			return err
		}
	}
	if settings.Target.KeyPath == "" {
		if settings.Target.KeyPath, err = prompter.Ask("Private key path", ""); err != nil {
			return err
		}
	}
	if settings.Target.Port == 0 {
		if settings.Target.Port, err = prompter.AskInt("Remote SSH port", config.DefaultSSHPort); err != nil {
			return err
		}
	}
	if settings.App.Port == 0 {
		if settings.App.Port, err = prompter.AskInt("Application port", 0); err != nil {
			return err
		}
	}

	return nil
}
