package crgmon

import (
	"atx040-go/errcode"
	"atx040-go/types"
)

// Payloads arrive either typed (in-process publishers) or as decoded JSON
// (map[string]any with float64 numbers, from the config service).

func decodeSoftReset(p any) (bool, error) {
	switch v := p.(type) {
	case bool:
		return v, nil
	case types.SoftReset:
		return v.Assert, nil
	case *types.SoftReset:
		if v != nil {
			return v.Assert, nil
		}
	case map[string]any:
		if b, ok := v["assert"].(bool); ok {
			return b, nil
		}
	}
	return false, errcode.New(errcode.InvalidPayload, "crgmon.soft_reset", "want bool or {assert}, got %T", p)
}

func decodeConfig(p any) (types.CRGConfig, error) {
	const op = "crgmon.config"
	switch v := p.(type) {
	case types.CRGConfig:
		return v, nil
	case map[string]any:
		var c types.CRGConfig
		var err error
		if c.IntervalMs, err = uintField(op, v, "interval_ms"); err != nil {
			return c, err
		}
		if c.Batch, err = uintField(op, v, "batch"); err != nil {
			return c, err
		}
		if c.LockCycles, err = uintField(op, v, "lock_cycles"); err != nil {
			return c, err
		}
		return c, nil
	}
	return types.CRGConfig{}, errcode.New(errcode.InvalidPayload, op, "unexpected %T", p)
}

func uintField(op string, m map[string]any, key string) (uint64, error) {
	raw, ok := m[key]
	if !ok {
		return 0, nil
	}
	f, ok := raw.(float64)
	if !ok || f < 0 || f != float64(uint64(f)) {
		return 0, errcode.New(errcode.InvalidPayload, op, "%s: want a non-negative integer, got %v", key, raw)
	}
	return uint64(f), nil
}
