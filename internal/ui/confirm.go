// Package ui holds the user-facing collaborators of the sync core: a blocking
// yes/no confirmation and fire-and-forget notifications.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/haierkeys/bento-note-sync/pkg/code"

	"github.com/fatih/color"
)

// Confirmer asks the user a yes/no question. Anything but an explicit yes,
// including cancellation, is a no.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) bool
}

// Static always gives the same answer, e.g. a "confirm" flag sent by an API client.
type Static bool

func (s Static) Confirm(context.Context, string, string) bool {
	return bool(s)
}

// ConsoleConfirmer prompts on a terminal with a (y/N) question. One goroutine
// reads the input for the whole lifetime of the confirmer, so a cancelled prompt
// leaves nothing behind that competes with the next one. A line typed after a
// cancelled prompt answers the next prompt.
// ConsoleConfirmer 在终端中询问 (y/N)
type ConsoleConfirmer struct {
	mu   sync.Mutex
	in   *bufio.Reader
	out  io.Writer
	once sync.Once

	// closed when the input reaches EOF or fails
	lines chan string
}

func NewConsoleConfirmer(in io.Reader, out io.Writer) *ConsoleConfirmer {
	return &ConsoleConfirmer{in: bufio.NewReader(in), out: out, lines: make(chan string)}
}

// FormatQuestion appends the choice indicator; the default answer is no.
func FormatQuestion(question string) string {
	return fmt.Sprintf("%s (y/N)", question)
}

func (c *ConsoleConfirmer) readLines() {
	defer close(c.lines)
	for {
		line, err := c.in.ReadString('\n')
		if line != "" {
			c.lines <- line
		}
		if err != nil {
			return
		}
	}
}

func (c *ConsoleConfirmer) Confirm(ctx context.Context, title, message string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.once.Do(func() { go c.readLines() })

	fmt.Fprintf(c.out, "%s %s\n", color.New(color.FgYellow, color.Bold).Sprint("?"), title)
	if message != "" {
		fmt.Fprintf(c.out, "  %s\n", message)
	}
	fmt.Fprint(c.out, FormatQuestion(code.PromptContinue.GetMessage())+" ")

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return false
	case line, ok := <-c.lines:
		return ok && strings.ToLower(strings.TrimSpace(line)) == "y"
	}
}
