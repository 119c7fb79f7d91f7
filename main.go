/*
The lab: runs one of the showcase experiences headless, driving the camera
rig from scripted input and logging what the page would show.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/labrig/engine"
	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/testbed"
)

func main() {
	if err := run(); err != nil {
		core.LogError("%s", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a labrig.toml application config")
	experience := flag.String("experience", "", fmt.Sprintf("experience to run, one of %v", testbed.ExperienceNames()))
	frames := flag.Uint64("frames", 0, "stop after this many frames (0 runs until the demo quits)")
	rigDir := flag.String("rigs", "", "directory of rig files to load and watch")
	flag.Parse()

	config := engine.DefaultApplicationConfig()
	if *configPath != "" {
		c, err := engine.LoadApplicationConfig(*configPath)
		if err != nil {
			return err
		}
		config = c
	}
	if *experience != "" {
		config.Experience = *experience
	}
	if *frames > 0 {
		config.MaxFrames = *frames
	}
	if *rigDir != "" {
		config.RigDir = *rigDir
		config.WatchRigs = true
	}

	tb, err := testbed.NewLabGame(config)
	if err != nil {
		return err
	}

	e, err := engine.New(tb.Game)
	if err != nil {
		return err
	}

	// cancel the frame loop on SIGTERM and friends
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := e.Initialize(ctx); err != nil {
		_ = e.Shutdown()
		return err
	}

	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
