// Package console is the line-oriented operator console of the server
// binary. It drives the same services as the admin HTTP API.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"tank_supervisor/internal/logger"
	"tank_supervisor/internal/service"
)

// ErrQuit is returned by Run when the operator asked to leave.
var ErrQuit = errors.New("console: quit")

const help = `commands:
  users                         list users
  add <login> <password> [admin] add a user
  del <login>                   remove a user
  state                         print the plant state
  start | stop                  start or stop the session server
  help                          this text
  quit                          shut the server down
`

// Console reads commands from in and writes answers to out.
type Console struct {
	services *service.Service
	out      io.Writer
	log      *logger.Logger
}

func New(services *service.Service, out io.Writer, log *logger.Logger) *Console {
	if log == nil {
		log = logger.Nop()
	}
	return &Console{services: services, out: out, log: log}
}

// Run serves commands until in is exhausted, ctx is done or the operator
// types quit. End of input returns nil.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()

	c.prompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := c.Exec(ctx, line); err != nil {
				return err
			}
			c.prompt()
		}
	}
}

func (c *Console) prompt() { fmt.Fprint(c.out, "> ") }

// Exec runs one command line. Only quit yields an error; command failures
// are printed.
func (c *Console) Exec(ctx context.Context, line string) error {
	f := strings.Fields(line)
	if len(f) == 0 {
		return nil
	}

	switch cmd, args := strings.ToLower(f[0]), f[1:]; cmd {
	case "users":
		c.printUsers()
	case "add":
		if len(args) < 2 {
			fmt.Fprintln(c.out, "usage: add <login> <password> [admin]")
			return nil
		}
		admin := len(args) > 2 && strings.EqualFold(args[2], "admin")
		c.report(c.services.AddUser(args[0], args[1], admin), "user %s added", args[0])
	case "del":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: del <login>")
			return nil
		}
		c.report(c.services.RemoveUser(args[0]), "user %s removed", args[0])
	case "state":
		c.printState(ctx)
	case "start":
		c.report(c.services.Sessions.Start(ctx), "session server running")
	case "stop":
		c.report(c.services.Sessions.Stop(ctx), "session server stopped")
	case "help", "?":
		fmt.Fprint(c.out, help)
	case "quit", "exit":
		return ErrQuit
	default:
		fmt.Fprintf(c.out, "unknown command %q, type help\n", cmd)
	}
	return nil
}

func (c *Console) report(err error, format string, args ...any) {
	if err != nil {
		c.log.Warnw("console_command_failed", "err", err)
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) printUsers() {
	for _, u := range c.services.ListUsers() {
		fmt.Fprintf(c.out, "%s\tAdmin=%s\tConnected=%s\n", u.Login, yesNo(u.IsAdmin), yesNo(u.Connected))
	}
}

func (c *Console) printState(ctx context.Context) {
	snap, err := c.services.GetState(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	if !snap.TanksOn {
		fmt.Fprintln(c.out, "Tanks are off")
		return
	}
	fmt.Fprintln(c.out, snap.State.String())
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
