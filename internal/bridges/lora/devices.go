package lora

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Device is one physical radio node from the device registry.
type Device struct {
	Address  uint8
	Name     string
	Entities map[uint8]string
}

// EntityName returns the configured name for an entity id, or a
// numeric placeholder when the registry has no name for it.
func (d Device) EntityName(entityID uint8) string {
	if name, ok := d.Entities[entityID]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("entity_%d", entityID)
}

// Registry is the static device registry loaded from devices.json.
// It maps radio addresses to named devices and is read-only after load.
type Registry struct {
	devices map[uint8]Device
}

// registryFile mirrors the devices.json layout:
//
//	{"devices": {"1": {"name": "Garage", "entities": {"5": "Door"}}}}
type registryFile struct {
	Devices map[string]registryDevice `json:"devices"`
}

type registryDevice struct {
	Name     string            `json:"name"`
	Entities map[string]string `json:"entities"`
}

// LoadRegistry reads the device registry from a JSON file.
//
// A missing or invalid registry is fatal: without it every frame would
// be dropped as an unknown sender.
//
// Parameters:
//   - path: Path to the devices.json file
//
// Returns:
//   - *Registry: Loaded registry
//   - error: If the file cannot be read or parsed
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading device registry: %w", err)
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing device registry: %w", err)
	}
	if len(file.Devices) == 0 {
		return nil, fmt.Errorf("device registry %s contains no devices", path)
	}

	r := &Registry{devices: make(map[uint8]Device, len(file.Devices))}
	for addrStr, dev := range file.Devices {
		addr, err := parseByteKey(addrStr)
		if err != nil {
			return nil, fmt.Errorf("device address %q: %w", addrStr, err)
		}
		if dev.Name == "" {
			return nil, fmt.Errorf("device address %s has no name", addrStr)
		}

		entities := make(map[uint8]string, len(dev.Entities))
		for idStr, name := range dev.Entities {
			id, err := parseByteKey(idStr)
			if err != nil {
				return nil, fmt.Errorf("device %s entity id %q: %w", dev.Name, idStr, err)
			}
			entities[id] = name
		}

		r.devices[addr] = Device{
			Address:  addr,
			Name:     dev.Name,
			Entities: entities,
		}
	}

	return r, nil
}

// Lookup returns the device registered at a radio address.
func (r *Registry) Lookup(address uint8) (Device, bool) {
	d, ok := r.devices[address]
	return d, ok
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return len(r.devices)
}

// Devices returns all registered devices in unspecified order.
func (r *Registry) Devices() []Device {
	out := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out
}

// parseByteKey parses a JSON object key that must be an integer 0-255.
func parseByteKey(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("must be an integer 0-255: %w", err)
	}
	return uint8(v), nil
}
