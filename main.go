package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/supersonic-app/nowplaying-bridge/backend"
	"github.com/supersonic-app/nowplaying-bridge/backend/ipc"
	"github.com/supersonic-app/nowplaying-bridge/res"

	"golang.org/x/term"
)

func init() {
	// macOS delivers media remote commands on the main thread's run loop.
	runtime.LockOSThread()
}

func main() {
	log.SetPrefix("[bridge] ")
	log.SetFlags(0)

	flag.Parse()
	if *backend.FlagVersion {
		fmt.Println(res.AppVersion)
		return
	}
	if *backend.FlagHelp {
		flag.Usage()
		return
	}
	if *backend.FlagCheckUpd {
		uc := backend.NewUpdateChecker(res.AppVersionTag, res.LatestReleaseURL)
		tag := uc.CheckLatestVersionTag(context.Background())
		if tag == "" {
			os.Exit(1)
		}
		fmt.Println(tag)
		return
	}

	if backend.HaveClientOptions() {
		if err := runClientCommands(); err != nil {
			log.Fatalf("error: %v", err)
		}
		return
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		log.Println("waiting for events on stdin; pipe `spotify watch --json` into the bridge")
	}

	opts := backend.CommandLineOptions()
	myApp, err := backend.StartupApp(res.AppName, res.DisplayName, res.AppVersionTag, res.LatestReleaseURL, opts)
	if err != nil {
		if errors.Is(err, backend.ErrAnotherInstance) {
			os.Exit(1)
		}
		log.Fatalf("fatal startup error: %v", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	myApp.Run(ctx)
	stop()

	if *backend.FlagVerbose {
		log.Println("Running shutdown tasks...")
	}
	myApp.Shutdown()
}

// runClientCommands forwards transport flags to the running bridge.
func runClientCommands() error {
	cli, err := ipc.Connect()
	if err != nil {
		return fmt.Errorf("no running bridge: %w", err)
	}
	switch {
	case *backend.FlagPlayPause:
		err = cli.PlayPause()
	case *backend.FlagPlay:
		err = cli.Play()
	case *backend.FlagPause:
		err = cli.Pause()
	case *backend.FlagPrevious:
		err = cli.Previous()
	case *backend.FlagNext:
		err = cli.Next()
	}
	if err != nil {
		return err
	}

	if backend.SeekToCLIArg >= 0 {
		if err := cli.Seek(backend.SeekToCLIArg); err != nil {
			return err
		}
	}
	if *backend.FlagStatus {
		np, err := cli.NowPlaying()
		if err != nil {
			return err
		}
		b, _ := json.MarshalIndent(np, "", "  ")
		fmt.Println(string(b))
	}
	if *backend.FlagQuit {
		return cli.Quit()
	}
	return nil
}
