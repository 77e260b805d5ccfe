package log

import "slices"

// Module identifies the part of the program a log line comes from.
type Module uint

// ModuleMask is a set of modules.
type ModuleMask uint64

const ModuleMaskAll ModuleMask = 1<<64 - 1

// Modules of the sound core. Packages can register more with NewModule.
const (
	ModEmu Module = iota + 1
	ModHwIo
	ModSound
	ModSnap
	ModAudio
)

var (
	// index 0 is the name of invalid modules.
	modNames  = []string{"<error>", "emu", "hwio", "sound", "snapshot", "audio"}
	debugMask ModuleMask
)

// NewModule registers a module. It must be called during package
// initialization.
func NewModule(name string) Module {
	modNames = append(modNames, name)
	return Module(len(modNames) - 1)
}

func ModuleByName(name string) (Module, bool) {
	if i := slices.Index(modNames[1:], name); i >= 0 {
		return Module(i + 1), true
	}
	return 0, false
}

// ModuleNames returns the names of all registered modules, sorted.
func ModuleNames() []string {
	names := slices.Clone(modNames[1:])
	slices.Sort(names)
	return names
}

func (mod Module) String() string {
	if int(mod) >= len(modNames) {
		return modNames[0]
	}
	return modNames[mod]
}

func (mod Module) Mask() ModuleMask { return 1 << mod }

// EnableDebugModules enables info and debug lines for the modules in mask.
func EnableDebugModules(mask ModuleMask) {
	debugMask |= mask
	if debugMask != 0 {
		setBackendLevel(DebugLevel)
	}
}

func DisableDebugModules(mask ModuleMask) { debugMask &^= mask }

// Enabled reports whether lines of the given level are emitted for mod.
func (mod Module) Enabled(lvl Level) bool {
	switch {
	case disabled:
		return false
	case lvl <= WarnLevel:
		return true
	}
	return debugMask&mod.Mask() != 0
}
