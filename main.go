package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime/debug"

	"nesapu/emu"
	"nesapu/emu/log"
)

func main() {
	cli := parseArgs(os.Args[1:])

	cfg, cfgpath := loadConfig(cli.ConfigPath)

	switch cli.mode {
	case playMode:
		checkf(playMain(cli.Play, cfg), "failed to play %s", cli.Play.ScriptPath)
	case renderMode:
		checkf(renderMain(cli.Render, cfg), "failed to render %s", cli.Render.ScriptPath)
	case toneMode:
		checkf(toneMain(cli.Tone, cfg), "failed to play tone")
	case stateMode:
		checkf(stateMain(cli.State, cfg), "failed to dump state")
	case configMode:
		checkf(configMain(cli.Config, cfg, cfgpath), "configuration error")
	case remoteMode:
		checkf(remoteMain(cli.Remote), "remote %s failed", cli.Remote.Action)
	case versionMode:
		printVersion()
	}
}

// loadConfig loads the configuration at path, or the one in the user
// configuration directory if path is empty.
func loadConfig(path string) (emu.Config, string) {
	if path == "" {
		return emu.LoadConfigOrDefault(), emu.ConfigPath()
	}

	cfg, err := emu.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.ModEmu.Warnf("Config file %s not found, using defaults", path)
		return emu.DefaultConfig(), path
	}
	checkf(err, "failed to load configuration")
	return cfg, path
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("nesapu", version)
}
