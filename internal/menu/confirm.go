package menu

import (
	"errors"
	"io"

	"github.com/manifoldco/promptui"
)

// Confirmer answers yes/no questions on behalf of the user.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// PromptConfirmer asks the question on the terminal. Pressing enter, "y" or
// "Y" confirms, any other input declines.
type PromptConfirmer struct {
	// stdin/stdout override the prompt's terminal streams. nil means the
	// process streams.
	stdin  io.ReadCloser
	stdout io.WriteCloser
}

// NewPromptConfirmer constructs a terminal-backed Confirmer.
func NewPromptConfirmer() *PromptConfirmer {
	return &PromptConfirmer{}
}

// Confirm satisfies the Confirmer interface.
func (c *PromptConfirmer) Confirm(question string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     question,
		IsConfirm: true,
		Default:   "y",
		Stdin:     c.stdin,
		Stdout:    c.stdout,
	}

	if _, err := prompt.Run(); err != nil {
		// A declined confirmation and a cancelled prompt both mean "skip
		// this step", they are not run failures.
		if errors.Is(err, promptui.ErrAbort) ||
			errors.Is(err, promptui.ErrInterrupt) ||
			errors.Is(err, promptui.ErrEOF) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// StaticConfirmer answers every question with a fixed response. Used for the
// non-interactive --yes and --keep-packages modes.
type StaticConfirmer struct {
	Answer bool
}

// Confirm satisfies the Confirmer interface.
func (s StaticConfirmer) Confirm(string) (bool, error) {
	return s.Answer, nil
}
