package log

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

type fieldKind uint8

const (
	kindBool fieldKind = iota
	kindString
	kindStringer
	kindHex8
	kindHex16
	kindHex32
	kindUint
	kindInt
	kindFloat
	kindDuration
	kindError
	kindBlob
)

// field is a typed key/value pair. Values are only formatted when the line is
// emitted.
type field struct {
	key  string
	kind fieldKind
	num  uint64
	str  string
	val  any
}

func (f *field) String() string {
	switch f.kind {
	case kindBool:
		return strconv.FormatBool(f.num != 0)
	case kindString:
		return f.str
	case kindStringer:
		return f.val.(fmt.Stringer).String()
	case kindHex8:
		return fmt.Sprintf("%02x", f.num)
	case kindHex16:
		return fmt.Sprintf("%04x", f.num)
	case kindHex32:
		return fmt.Sprintf("%08x", f.num)
	case kindUint:
		return strconv.FormatUint(f.num, 10)
	case kindInt:
		return strconv.FormatInt(int64(f.num), 10)
	case kindFloat:
		return strconv.FormatFloat(f.val.(float64), 'g', -1, 64)
	case kindDuration:
		return time.Duration(f.num).String()
	case kindError:
		if f.val == nil {
			return "<nil>"
		}
		return f.val.(error).Error()
	case kindBlob:
		return hex.Dump(f.val.([]byte))
	}
	return ""
}

const maxFields = 16

// EntryZ is a log line being built. All methods are no-ops on a nil *EntryZ,
// so a disabled log call costs a single comparison:
//
//	log.ModSound.InfoZ("write").Uint8("val", val).End()
type EntryZ struct {
	mod Module
	lvl Level
	msg string

	// printf-style lines
	format string
	args   []any

	fields [maxFields]field
	n      int
}

var entries = sync.Pool{New: func() any { return new(EntryZ) }}

func (mod Module) entry(lvl Level, msg string) *EntryZ {
	z := entries.Get().(*EntryZ)
	z.mod, z.lvl, z.msg = mod, lvl, msg
	return z
}

func (mod Module) z(lvl Level, msg string) *EntryZ {
	if !mod.Enabled(lvl) {
		return nil
	}
	return mod.entry(lvl, msg)
}

func (mod Module) DebugZ(msg string) *EntryZ { return mod.z(DebugLevel, msg) }
func (mod Module) InfoZ(msg string) *EntryZ  { return mod.z(InfoLevel, msg) }
func (mod Module) WarnZ(msg string) *EntryZ  { return mod.z(WarnLevel, msg) }
func (mod Module) ErrorZ(msg string) *EntryZ { return mod.z(ErrorLevel, msg) }
func (mod Module) FatalZ(msg string) *EntryZ { return mod.z(FatalLevel, msg) }

func (z *EntryZ) add(f field) *EntryZ {
	if z != nil && z.n < maxFields {
		z.fields[z.n] = f
		z.n++
	}
	return z
}

func (z *EntryZ) Bool(key string, b bool) *EntryZ {
	var n uint64
	if b {
		n = 1
	}
	return z.add(field{key: key, kind: kindBool, num: n})
}

func (z *EntryZ) String(key, s string) *EntryZ {
	return z.add(field{key: key, kind: kindString, str: s})
}

func (z *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	return z.add(field{key: key, kind: kindStringer, val: s})
}

func (z *EntryZ) Hex8(key string, v uint8) *EntryZ {
	return z.add(field{key: key, kind: kindHex8, num: uint64(v)})
}

func (z *EntryZ) Hex16(key string, v uint16) *EntryZ {
	return z.add(field{key: key, kind: kindHex16, num: uint64(v)})
}

func (z *EntryZ) Hex32(key string, v uint32) *EntryZ {
	return z.add(field{key: key, kind: kindHex32, num: uint64(v)})
}

func (z *EntryZ) Uint8(key string, v uint8) *EntryZ   { return z.Uint64(key, uint64(v)) }
func (z *EntryZ) Uint16(key string, v uint16) *EntryZ { return z.Uint64(key, uint64(v)) }
func (z *EntryZ) Uint32(key string, v uint32) *EntryZ { return z.Uint64(key, uint64(v)) }

func (z *EntryZ) Uint64(key string, v uint64) *EntryZ {
	return z.add(field{key: key, kind: kindUint, num: v})
}

func (z *EntryZ) Int(key string, v int) *EntryZ {
	return z.add(field{key: key, kind: kindInt, num: uint64(v)})
}

func (z *EntryZ) Float(key string, v float64) *EntryZ {
	return z.add(field{key: key, kind: kindFloat, val: v})
}

func (z *EntryZ) Duration(key string, d time.Duration) *EntryZ {
	return z.add(field{key: key, kind: kindDuration, num: uint64(d)})
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	return z.add(field{key: key, kind: kindError, val: err})
}

func (z *EntryZ) Blob(key string, b []byte) *EntryZ {
	return z.add(field{key: key, kind: kindBlob, val: b})
}

// End emits the log line and recycles the entry.
func (z *EntryZ) End() {
	if z == nil {
		return
	}
	for _, c := range contexts {
		c.AddLogContext(z)
	}

	fields := make(logrus.Fields, z.n+1)
	fields["_mod"] = z.mod.String()
	for i := range z.fields[:z.n] {
		fields[z.fields[i].key] = z.fields[i].String()
	}
	entry := logrus.StandardLogger().WithFields(fields)

	msg := z.msg
	if z.format != "" {
		msg = fmt.Sprintf(z.format, z.args...)
	}
	switch z.lvl {
	case PanicLevel:
		entry.Panic(msg)
	case FatalLevel:
		entry.Fatal(msg)
	case ErrorLevel:
		entry.Error(msg)
	case WarnLevel:
		entry.Warn(msg)
	case InfoLevel:
		entry.Info(msg)
	default:
		entry.Debug(msg)
	}

	*z = EntryZ{}
	entries.Put(z)
}
