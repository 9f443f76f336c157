package boards

import (
	"embed"
	"encoding/json"
	"strconv"

	"atx040-go/errcode"
	"atx040-go/types"
)

// Board describes what the PCB/FPGA offers: the device, its reference
// oscillator and the IO table. It must not include operating parameters
// (system clock rate, SDRAM sizes) or any timing logic.
type Board struct {
	Name           string     `json:"name"`
	Device         string     `json:"device"`
	DefaultClkName string     `json:"default_clk_name"`
	DefaultClkFreq uint64     `json:"default_clk_freq"`
	IO             []types.IO `json:"io"`
}

//go:embed *.json
var tables embed.FS

// Load parses the embedded table for the named board.
func Load(name string) (*Board, error) {
	raw, err := tables.ReadFile(name + ".json")
	if err != nil {
		return nil, errcode.New(errcode.InvalidConfig, "boards.load", "no table for board %q", name)
	}
	return Parse(raw)
}

// Parse decodes and validates a board table.
func Parse(raw []byte) (*Board, error) {
	var b Board
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, errcode.Wrap(errcode.InvalidConfig, "boards.parse", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks that every resource is uniquely keyed, carries pins and
// that no physical pin is assigned twice.
func (b *Board) Validate() error {
	const op = "boards.validate"
	if b.Name == "" || b.Device == "" {
		return errcode.New(errcode.InvalidConfig, op, "name and device are required")
	}
	seen := map[string]bool{}
	pins := map[string]string{}
	claim := func(owner string, ps []string) error {
		if len(ps) == 0 {
			return errcode.New(errcode.InvalidConfig, op, "%s has no pins", owner)
		}
		for _, p := range ps {
			if prev, dup := pins[p]; dup {
				return errcode.New(errcode.InvalidConfig, op, "pin %s used by %s and %s", p, prev, owner)
			}
			pins[p] = owner
		}
		return nil
	}
	for _, io := range b.IO {
		key := Key(io.Name, io.Index)
		if seen[key] {
			return errcode.New(errcode.InvalidConfig, op, "duplicate resource %s", key)
		}
		seen[key] = true
		if len(io.Subsignals) == 0 {
			if err := claim(key, io.Pins); err != nil {
				return err
			}
			continue
		}
		for _, s := range io.Subsignals {
			if err := claim(key+"."+s.Name, s.Pins); err != nil {
				return err
			}
		}
	}
	if b.DefaultClkName != "" {
		if _, ok := b.Lookup(b.DefaultClkName, 0); !ok {
			return errcode.New(errcode.InvalidConfig, op, "default clock %s not in io table", b.DefaultClkName)
		}
		if b.DefaultClkFreq == 0 {
			return errcode.New(errcode.InvalidConfig, op, "default clock %s has no frequency", b.DefaultClkName)
		}
	}
	return nil
}

// Lookup finds a resource by name and index.
func (b *Board) Lookup(name string, index int) (types.IO, bool) {
	for _, io := range b.IO {
		if io.Name == name && io.Index == index {
			return io, true
		}
	}
	return types.IO{}, false
}

// Key is the "name:index" identity of a resource.
func Key(name string, index int) string { return name + ":" + strconv.Itoa(index) }
