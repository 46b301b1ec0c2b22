// Package clipboard copies the transcript to the system clipboard using robotgo.
package clipboard

import (
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"
)

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	Copy(text string) error
}

// System is the robotgo-backed clipboard.
type System struct{}

// Copy replaces the clipboard contents with text. Empty text is ignored.
func (System) Copy(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: write: %w", err)
	}
	return nil
}
