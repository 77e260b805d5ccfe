package hwio

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type regInfo struct {
	offset uint16
	bank   int
	regPtr *Reg8
}

type tagOpts map[string]string

func parseTag(tag string) tagOpts {
	opts := make(tagOpts)
	for _, f := range strings.Split(tag, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		k, v, _ := strings.Cut(f, "=")
		opts[k] = v
	}
	return opts
}

func (o tagOpts) uint(key string, bits int) (uint64, bool, error) {
	s, ok := o[key]
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s=%q: %w", key, s, err)
	}
	return v, true, nil
}

func structValue(data any) (reflect.Value, error) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("hwio: expected pointer to struct, got %T", data)
	}
	return v, nil
}

var reg8Type = reflect.TypeFor[Reg8]()

// InitRegs initializes all Reg8 fields of the struct pointed to by data,
// according to their "hwio" tag:
//
//	reset=0x12      initial value
//	rwmask=0xF0     bits that can be written (default: all)
//	readonly        writes are ignored
//	writeonly       reads return 0
//	rcb[=Method]    read callback, default method name is Read+UPPER(field)
//	wcb[=Method]    write callback, default method name is Write+UPPER(field)
//	pcb[=Method]    peek callback, default method name is Peek+UPPER(field)
func InitRegs(data any) error {
	v, err := structValue(data)
	if err != nil {
		return err
	}
	sv := v.Elem()
	st := sv.Type()

	for i := range st.NumField() {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok || f.Type != reg8Type {
			continue
		}
		opts := parseTag(tag)
		reg := sv.Field(i).Addr().Interface().(*Reg8)
		*reg = Reg8{Name: f.Name}

		reset, _, err := opts.uint("reset", 8)
		if err != nil {
			return fmt.Errorf("hwio: field %s: %w", f.Name, err)
		}
		reg.Value = uint8(reset)

		rwmask, found, err := opts.uint("rwmask", 8)
		if err != nil {
			return fmt.Errorf("hwio: field %s: %w", f.Name, err)
		}
		if found {
			reg.RoMask = ^uint8(rwmask)
		}

		_, ro := opts["readonly"]
		_, wo := opts["writeonly"]
		switch {
		case ro && wo:
			return fmt.Errorf("hwio: field %s: both readonly and writeonly", f.Name)
		case ro:
			reg.Access = ReadOnly
		case wo:
			reg.Access = WriteOnly
		}

		upper := strings.ToUpper(f.Name)
		if name, ok := opts["rcb"]; ok {
			m, err := method(v, name, "Read"+upper, f.Name)
			if err != nil {
				return err
			}
			fn, ok := m.Interface().(func(uint8) uint8)
			if !ok {
				return fmt.Errorf("hwio: field %s: invalid read callback signature %s", f.Name, m.Type())
			}
			reg.ReadCb = fn
		}
		if name, ok := opts["pcb"]; ok {
			m, err := method(v, name, "Peek"+upper, f.Name)
			if err != nil {
				return err
			}
			fn, ok := m.Interface().(func(uint8) uint8)
			if !ok {
				return fmt.Errorf("hwio: field %s: invalid peek callback signature %s", f.Name, m.Type())
			}
			reg.PeekCb = fn
		}
		if name, ok := opts["wcb"]; ok {
			m, err := method(v, name, "Write"+upper, f.Name)
			if err != nil {
				return err
			}
			fn, ok := m.Interface().(func(uint8, uint8))
			if !ok {
				return fmt.Errorf("hwio: field %s: invalid write callback signature %s", f.Name, m.Type())
			}
			reg.WriteCb = fn
		}
	}
	return nil
}

func method(v reflect.Value, name, def, field string) (reflect.Value, error) {
	if name == "" {
		name = def
	}
	m := v.MethodByName(name)
	if !m.IsValid() {
		return reflect.Value{}, fmt.Errorf("hwio: field %s: cannot find method %s on %s", field, name, v.Type())
	}
	return m, nil
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(data any) {
	if err := InitRegs(data); err != nil {
		panic(err)
	}
}

var errNoOffset = errors.New("no offset")

func bankGetRegs(data any, bankNum int) ([]regInfo, error) {
	v, err := structValue(data)
	if err != nil {
		return nil, err
	}
	sv := v.Elem()
	st := sv.Type()

	var regs []regInfo
	for i := range st.NumField() {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok || f.Type != reg8Type {
			continue
		}
		opts := parseTag(tag)

		bank, _, err := opts.uint("bank", 8)
		if err != nil {
			return nil, fmt.Errorf("hwio: field %s: %w", f.Name, err)
		}
		if int(bank) != bankNum {
			continue
		}
		off, found, err := opts.uint("offset", 16)
		if err != nil {
			return nil, fmt.Errorf("hwio: field %s: %w", f.Name, err)
		}
		if !found {
			if bankNum != 0 {
				return nil, fmt.Errorf("hwio: field %s: %w", f.Name, errNoOffset)
			}
			continue
		}
		regs = append(regs, regInfo{
			offset: uint16(off),
			bank:   int(bank),
			regPtr: sv.Field(i).Addr().Interface().(*Reg8),
		})
	}
	return regs, nil
}
