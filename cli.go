package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"nesapu/emu/log"
)

type mode byte

const (
	playMode    mode = iota // Play a script on the audio device
	renderMode              // Render a script to a WAV file
	toneMode                // Play or render a constant tone
	stateMode               // Dump the APU state after running a script
	configMode              // Show or save the configuration
	remoteMode              // Remote control a playing core
	versionMode             // Show nesapu version
)

type (
	CLI struct {
		Play    Play      `cmd:"" help:"Play a register script on the audio device."`
		Render  Render    `cmd:"" help:"Render a register script to a WAV file."`
		Tone    Tone      `cmd:"" help:"Play a constant tone on one channel."`
		State   State     `cmd:"" help:"Run a register script and dump the APU state."`
		Config  ConfigCmd `cmd:"" help:"Show the configuration."`
		Remote  Remote    `cmd:"" help:"Remote control a playing sound core."`
		Version Version   `cmd:"" help:"Show nesapu version."`

		Log        logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		ConfigPath string     `name:"config" help:"${config_help}" type:"path"`

		mode mode
	}

	Play struct {
		ScriptPath string `arg:"" name:"/path/to/script" help:"${script_help}" type:"existingfile"`

		Backend string `name:"backend" help:"Audio backend (sdl, oto or null), overrides the configuration."`
		Port    int    `name:"port" help:"Accept remote commands on this port."`
	}

	Render struct {
		ScriptPath string `arg:"" name:"/path/to/script" help:"${script_help}" type:"existingfile"`

		Out string `name:"out" short:"o" help:"Output WAV file." type:"path" required:""`
	}

	Tone struct {
		Channel string  `arg:"" name:"channel" help:"Channel to play." enum:"square,triangle,noise" default:"square" optional:""`
		Freq    float64 `name:"freq" help:"Frequency in Hz." default:"440"`
		Volume  uint8   `name:"volume" help:"Volume, from 0 to 15." default:"12"`
		Seconds float64 `name:"seconds" help:"Duration in seconds." default:"2"`
		Out     string  `name:"out" short:"o" help:"Render to this WAV file instead of playing." type:"path"`
	}

	State struct {
		ScriptPath string `arg:"" name:"/path/to/script" help:"${script_help}" type:"existingfile"`

		Frames int      `name:"frames" help:"Stop after this many frames (0 runs the whole script)." default:"0"`
		Out    *outfile `name:"out" short:"o" help:"Write the JSON state dump." placeholder:"FILE|stdout|stderr"`
		Save   string   `name:"save" help:"Also write the binary snapshot to this file." type:"path"`
	}

	ConfigCmd struct {
		Save bool `name:"save" help:"Write the configuration to the configuration file."`
	}

	Remote struct {
		Port   int    `name:"port" help:"Port of the playing sound core." required:""`
		Action string `arg:"" name:"action" help:"${remote_help}" enum:"reset,pause,resume,rewind,save,load,stop"`
		Arg    string `arg:"" name:"arg" help:"Frames to rewind, or snapshot file to save or load." optional:""`
	}

	Version struct{}
)

var vars = kong.Vars{
	"script_help": "TOML register script.",
	"config_help": "Configuration file. (default to config.toml in the user config directory)",
	"log_help":    "Enable logging for specified modules.",
	"remote_help": "One of reset, pause, resume, rewind, save, load or stop.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("nesapu"),
		kong.Description("NES APU sound core."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch strings.Fields(ctx.Command())[0] {
	case "play":
		cfg.mode = playMode
	case "render":
		cfg.mode = renderMode
	case "tone":
		cfg.mode = toneMode
	case "state":
		cfg.mode = stateMode
	case "config":
		cfg.mode = configMode
	case "remote":
		cfg.mode = remoteMode
	case "version":
		cfg.mode = versionMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}

	w := ctx.Stdout
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Log modules:")
	fmt.Fprintln(w, "  --log takes a comma-separated list among:")
	for _, m := range log.ModuleNames() {
		fmt.Fprintf(w, "    %s\n", m)
	}
	fmt.Fprintln(w, "  'all' enables every module, 'no' disables all logs, warnings included.")
	return nil
}

type logModMask log.ModuleMask

// Decode enables the modules of a comma-separated list.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	var list string
	if err := ctx.Scan.PopValueInto("log", &list); err != nil {
		return err
	}

	names := strings.Split(list, ",")
	switch {
	case slices.Contains(names, "no"):
		if len(names) > 1 {
			return errors.New("'no' cannot be combined with other log modules")
		}
		log.Disable()
		return nil
	case slices.Contains(names, "all"):
		log.EnableDebugModules(log.ModuleMaskAll)
		return nil
	}

	var mask log.ModuleMask
	for _, name := range names {
		mod, ok := log.ModuleByName(name)
		if !ok {
			return fmt.Errorf("unknown log module %q", name)
		}
		mask |= mod.Mask()
	}
	log.EnableDebugModules(mask)
	return nil
}

// outfile is an output file flag, where stdout and stderr name the standard
// streams.
type outfile struct {
	io.WriteCloser
	name string
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Decode implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	if err := ctx.Scan.PopValueInto("file", &f.name); err != nil {
		return err
	}

	switch f.name {
	case "stdout":
		f.WriteCloser = nopCloser{os.Stdout}
	case "stderr":
		f.WriteCloser = nopCloser{os.Stderr}
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.WriteCloser = fd
	}
	return nil
}

func (f *outfile) String() string { return f.name }

// checkf exits with a fatal error if err is not nil.
func checkf(err error, format string, args ...any) {
	if err != nil {
		fatalf("%s.\n\t%v", fmt.Sprintf(format, args...), err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:\n\t"+format+"\n", args...)
	os.Exit(1)
}
