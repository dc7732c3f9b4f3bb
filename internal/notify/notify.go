// Package notify defines the UI ports the core talks to: transient messages
// for the user and navigation requests. Front ends supply their own
// implementations; the ones here cover logs, terminals and tests.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/angelmondragon/greencart/pkg/logger"
)

// Notifier shows transient success and error messages.
type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// Navigator moves the UI to a route such as "/login" or "/cart".
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// Well-known routes.
const (
	RouteHome  = "/"
	RouteLogin = "/login"
	RouteCart  = "/cart"
)

// Log writes notifications and navigations to the structured logger.
type Log struct {
	logg *logger.Logger
}

func NewLog(logg *logger.Logger) *Log {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Log{logg: logg}
}

func (l *Log) Success(ctx context.Context, msg string) {
	l.logg.Info(l.logg.WithField(ctx, "notice", "success"), msg)
}

func (l *Log) Error(ctx context.Context, msg string) {
	l.logg.Warn(l.logg.WithField(ctx, "notice", "error"), msg)
}

func (l *Log) Navigate(ctx context.Context, path string) {
	l.logg.Info(l.logg.WithField(ctx, "route", path), "navigate")
}

// Console prints notifications for a terminal user.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Success(_ context.Context, msg string) {
	c.printf("✓ %s\n", msg)
}

func (c *Console) Error(_ context.Context, msg string) {
	c.printf("✗ %s\n", msg)
}

// Navigate has no terminal equivalent beyond telling the user where to go.
func (c *Console) Navigate(_ context.Context, path string) {
	if path == RouteLogin {
		c.printf("→ please log in again (greencart login)\n")
	}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, args...)
}
