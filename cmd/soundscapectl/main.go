package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/satindergrewal/soundscape/internal/client"
)

const usage = `usage: soundscapectl [-addr URL] <command> [args]

commands:
  status
  setup <sound> [seconds]     seconds 0 or omitted = infinite
  play | pause | stop
  seek <seconds>
  interrupt began|ended       ended always asks to resume
  export [sound] [dir]        write a WAV loop
  wait                        block until the server is up
`

func main() {
	addr := flag.String("addr", envOr("SOUNDSCAPE_URL", "http://localhost:8080"), "server URL")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, client.New(*addr), flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, c *client.Client, args []string) error {
	var (
		st  client.Status
		err error
	)
	switch cmd := args[0]; cmd {
	case "status":
		st, err = c.Status(ctx)
	case "setup":
		if len(args) < 2 {
			return fmt.Errorf("setup: missing sound")
		}
		var secs float64
		if len(args) > 2 {
			if secs, err = strconv.ParseFloat(args[2], 64); err != nil {
				return fmt.Errorf("setup: bad duration %q", args[2])
			}
		}
		st, err = c.Setup(ctx, args[1], secs)
	case "play":
		st, err = c.Play(ctx)
	case "pause":
		st, err = c.Pause(ctx)
	case "stop":
		st, err = c.Stop(ctx)
	case "seek":
		if len(args) < 2 {
			return fmt.Errorf("seek: missing position")
		}
		to, perr := strconv.ParseFloat(args[1], 64)
		if perr != nil {
			return fmt.Errorf("seek: bad position %q", args[1])
		}
		st, err = c.Seek(ctx, to)
	case "interrupt":
		if len(args) < 2 || (args[1] != "began" && args[1] != "ended") {
			return fmt.Errorf("interrupt: want began or ended")
		}
		return c.Interrupt(ctx, args[1] == "began", true)
	case "export":
		sound, dir := "", "."
		if len(args) > 1 {
			sound = args[1]
		}
		if len(args) > 2 {
			dir = args[2]
		}
		path, err := c.Export(ctx, dir, sound, 0, 0)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "wait":
		return c.WaitForHealthy(ctx, time.Second)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}
	printStatus(st)
	return nil
}

func printStatus(st client.Status) {
	length := "infinite"
	if !st.Infinite {
		length = fmt.Sprintf("%.0fs", st.Duration)
	}
	fmt.Printf("%-10s %-12s %s  t=%.1fs  progress=%.0f%%  setup=%s\n",
		st.State, st.Sound, length, st.CurrentTime, st.Progress*100, st.Setup)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
