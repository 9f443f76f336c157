package config

import (
	"context"
	"encoding/json"

	"atx040-go/bus"
	"atx040-go/errcode"

	"github.com/platinasystems/log"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// Decode parses a device config into its top-level sections.
func Decode(device string) (map[string]any, error) {
	const op = "config.decode"
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return nil, errcode.New(errcode.InvalidConfig, op, "no embedded config for device %q", device)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errcode.Wrap(errcode.InvalidConfig, op, err)
	}
	if m == nil {
		return nil, errcode.New(errcode.InvalidConfig, op, "config for %q is not a JSON object", device)
	}
	return m, nil
}

// Section re-decodes one top-level section into v.
func Section(device, key string, v any) error {
	const op = "config.section"
	m, err := Decode(device)
	if err != nil {
		return err
	}
	sec, ok := m[key]
	if !ok {
		return nil
	}
	raw, err := json.Marshal(sec)
	if err != nil {
		return errcode.Wrap(errcode.InvalidConfig, op, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errcode.Wrap(errcode.InvalidConfig, op, err)
	}
	return nil
}

// publishConfig reads the device config from embedded data and publishes it as retained messages.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errcode.New(errcode.InvalidParams, "config.publish", "missing device ID in context")
	}
	m, err := Decode(device)
	if err != nil {
		return err
	}
	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			log.Print("err", s.Name, ": ", err)
		}
	}()
}
