package client

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Display is the presentation sink of a Client. Calls come from the caller
// goroutine and from the poller, and must not block for long.
type Display interface {
	ShowInterface()
	ShowError(msg string)
}

type nopDisplay struct{}

func (nopDisplay) ShowInterface()       {}
func (nopDisplay) ShowError(msg string) {}

// ConsoleDisplay renders the client state as text.
type ConsoleDisplay struct {
	mu     sync.Mutex
	out    io.Writer
	client *Client
}

func NewConsoleDisplay(out io.Writer) *ConsoleDisplay {
	return &ConsoleDisplay{out: out}
}

// Attach selects the client whose state ShowInterface prints.
func (d *ConsoleDisplay) Attach(c *Client) {
	d.mu.Lock()
	d.client = c
	d.mu.Unlock()
}

func (d *ConsoleDisplay) ShowInterface() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return
	}

	st := d.client.Snapshot()
	fmt.Fprintf(d.out, "\n=== %s ===\n", d.client.Status())
	if st.Username == "" {
		fmt.Fprintln(d.out, "not logged in")
		return
	}
	role := "viewer"
	if st.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(d.out, "user: %s (%s)  refresh: %s\n", st.Username, role, st.Refresh)
	if st.LastSample.IsZero() {
		fmt.Fprintln(d.out, "no data yet")
		return
	}
	fmt.Fprintf(d.out, "%s\n", st.Last)
	fmt.Fprintf(d.out, "sampled %s (first %s)\n",
		st.LastSample.Format(time.TimeOnly), st.FirstSample.Format(time.TimeOnly))
}

func (d *ConsoleDisplay) ShowError(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "ERROR: %s\n", msg)
}
