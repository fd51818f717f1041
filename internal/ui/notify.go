package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Kind 通知类型
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notifier shows a transient message; it never blocks the caller.
type Notifier interface {
	Notify(kind Kind, message string)
}

var (
	colorRed   = color.New(color.FgRed)
	colorGreen = color.New(color.FgGreen)
	colorBlue  = color.New(color.FgBlue)
)

// ConsoleNotifier prints coloured one-line messages.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = color.Output
	}
	return &ConsoleNotifier{out: out}
}

func (n *ConsoleNotifier) Notify(kind Kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch kind {
	case KindSuccess:
		fmt.Fprintf(n.out, "%s %s\n", colorGreen.Sprint("✔"), message)
	case KindError:
		fmt.Fprintf(n.out, "%s %s\n", colorRed.Sprint("✖"), message)
	default:
		fmt.Fprintf(n.out, "%s %s\n", colorBlue.Sprint("•"), message)
	}
}

// LogNotifier forwards notifications to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(kind Kind, message string) {
	if kind == KindError {
		n.logger.Warn("notify", zap.String("kind", string(kind)), zap.String("message", message))
		return
	}
	n.logger.Info("notify", zap.String("kind", string(kind)), zap.String("message", message))
}

// Multi fans a notification out to every notifier.
type Multi []Notifier

func (m Multi) Notify(kind Kind, message string) {
	for _, n := range m {
		n.Notify(kind, message)
	}
}

// Message is one recorded notification.
type Message struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Recent keeps the last notifications so a local UI can poll them.
// Recent 保留最近的通知，供本地接口轮询
type Recent struct {
	mu   sync.Mutex
	max  int
	msgs []Message
}

func NewRecent(max int) *Recent {
	if max <= 0 {
		max = 20
	}
	return &Recent{max: max}
}

func (r *Recent) Notify(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Kind: kind, Message: message})
	if len(r.msgs) > r.max {
		r.msgs = r.msgs[len(r.msgs)-r.max:]
	}
}

// Drain returns and clears the recorded notifications.
func (r *Recent) Drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.msgs
	r.msgs = nil
	return out
}
