package installer

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"toolseed/internal/logger"
	"toolseed/internal/version"
)

// Decision is what the engine does with a resolved version.
type Decision int

const (
	DecisionUnknown Decision = iota
	Skip
	Install
	Reinstall
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Install:
		return "install"
	case Reinstall:
		return "reinstall"
	default:
		return "unknown"
	}
}

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// Decide picks Install, Reinstall or Skip for a resolved version given what
// is installed now:
//
//	not installed                        -> Install
//	same version, auto                   -> Reinstall
//	same version, interactive, confirmed -> Reinstall
//	same version, interactive, otherwise -> Skip
//	different version                    -> Install
//
// Decide touches nothing but the prompter. A prompter failure counts as a
// decline.
func Decide(resolved version.Resolved, installed InstalledState, mode Mode, prompt Prompter) (Decision, error) {
	if resolved.Concrete == "" {
		return DecisionUnknown, fmt.Errorf("decide: no concrete version")
	}
	if !installed.Present {
		return Install, nil
	}
	if installed.Version != resolved.Concrete {
		return Install, nil
	}

	switch mode {
	case ModeAuto, "":
		return Reinstall, nil
	case ModeInteractive:
		if prompt == nil {
			return Skip, nil
		}
		q := fmt.Sprintf("%s is already installed. Reinstall?", resolved.Concrete)
		yes, err := prompt.Confirm(q)
		if err != nil {
			logger.Warn("[WARN] Prompt failed, keeping installed version: %v\n", err)
			return Skip, nil
		}
		if yes {
			return Reinstall, nil
		}
		return Skip, nil
	default:
		return DecisionUnknown, fmt.Errorf("decide: unknown interaction mode %q", mode)
	}
}

// StaticPrompter answers every question with Answer.
type StaticPrompter struct {
	Answer bool
	Err    error
	Asked  []string
}

func (s *StaticPrompter) Confirm(question string) (bool, error) {
	s.Asked = append(s.Asked, question)
	return s.Answer, s.Err
}

// HuhPrompter asks on the terminal. When stdin is not a terminal it answers
// No without asking.
type HuhPrompter struct {
	Tool string
}

func (h HuhPrompter) Confirm(question string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Debug("[DEBUG] stdin is not a terminal, answering no\n")
		return false, nil
	}

	theme := huh.ThemeCharm()
	theme.Focused.Title = theme.Focused.Title.Foreground(lipgloss.Color("#03BF87")).Bold(true)

	title := question
	if h.Tool != "" {
		title = h.Tool + ": " + question
	}
	answer := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Reinstall").
				Negative("Keep").
				Value(&answer),
		),
	).WithTheme(theme)

	if err := form.Run(); err != nil {
		return false, err
	}
	return answer, nil
}
