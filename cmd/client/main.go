package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"tank_supervisor/internal/client"
	"tank_supervisor/internal/config"
	"tank_supervisor/internal/logger"
)

const usage = `commands:
  connect [address login password]  log in (defaults from config)
  disconnect                         log out
  pump <0..65535>                    set pump input (admin)
  v1 open|close, v2 open|close       move a valve (admin)
  refresh <duration>                 polling interval, e.g. 5s
  show                               print the current state
  quit
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	display := client.NewConsoleDisplay(os.Stdout)
	c := client.New(display,
		client.WithTimeout(cfg.Client.Timeout),
		client.WithRefresh(cfg.Client.Refresh),
		client.WithLogoutGrace(cfg.Client.LogoutGrace),
		client.WithLogger(log.Named("client")),
	)
	display.Attach(c)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	fmt.Print(usage)
	for {
		select {
		case <-ctx.Done():
			c.Disconnect()
			return
		case line, ok := <-lines:
			if !ok || !run(ctx, c, display, cfg.Client, line) {
				c.Disconnect()
				return
			}
		}
	}
}

// run executes one command line and reports whether to keep going.
// Session failures are already reported through the display.
func run(ctx context.Context, c *client.Client, d client.Display, cfg config.ClientConfig, line string) bool {
	f := strings.Fields(line)
	if len(f) == 0 {
		return true
	}

	switch cmd, args := strings.ToLower(f[0]), f[1:]; cmd {
	case "connect":
		addr, login, password := cfg.Address, cfg.Login, cfg.Password
		if len(args) == 3 {
			addr, login, password = args[0], args[1], args[2]
		}
		dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		_ = c.Connect(dialCtx, addr, login, password)
		cancel()
	case "disconnect":
		c.Disconnect()
	case "pump":
		if len(args) != 1 {
			d.ShowError("usage: pump <0..65535>")
			return true
		}
		v, err := strconv.ParseUint(args[0], 10, 16)
		if err != nil {
			d.ShowError("pump input must be 0..65535")
			return true
		}
		_ = c.SetPumpInput(uint16(v))
	case "v1", "v2":
		if len(args) != 1 || (args[0] != "open" && args[0] != "close") {
			d.ShowError("usage: " + cmd + " open|close")
			return true
		}
		valve := client.Valve1
		if cmd == "v2" {
			valve = client.Valve2
		}
		_ = c.SetValveOpen(valve, args[0] == "open")
	case "refresh":
		if len(args) != 1 {
			d.ShowError("usage: refresh <duration>")
			return true
		}
		dur, err := time.ParseDuration(args[0])
		if err != nil || dur <= 0 {
			d.ShowError("invalid duration " + args[0])
			return true
		}
		c.SetRefreshInterval(dur)
	case "show":
		d.ShowInterface()
	case "help", "?":
		fmt.Print(usage)
	case "quit", "exit":
		return false
	default:
		d.ShowError(fmt.Sprintf("unknown command %q", cmd))
	}
	return true
}
