package main

import (
	"fmt"
	"os"
	"strconv"

	"nesapu/emu/rpc"
)

func remoteMain(args Remote) error {
	client, err := rpc.NewClient(args.Port)
	if err != nil {
		return err
	}
	defer client.Close()

	switch args.Action {
	case "reset":
		return client.Reset()
	case "pause":
		return client.SetPause(true)
	case "resume":
		return client.SetPause(false)
	case "stop":
		return client.Stop()
	case "rewind":
		frames := 60
		if args.Arg != "" {
			if frames, err = strconv.Atoi(args.Arg); err != nil {
				return fmt.Errorf("invalid frame count %q", args.Arg)
			}
		}
		return client.Rewind(frames)
	case "save":
		if args.Arg == "" {
			return fmt.Errorf("missing snapshot file")
		}
		blob, err := client.TakeSnapshot()
		if err != nil {
			return err
		}
		return os.WriteFile(args.Arg, blob, 0644)
	case "load":
		if args.Arg == "" {
			return fmt.Errorf("missing snapshot file")
		}
		blob, err := os.ReadFile(args.Arg)
		if err != nil {
			return err
		}
		return client.LoadSnapshot(blob)
	}
	return fmt.Errorf("unknown action %q", args.Action)
}
