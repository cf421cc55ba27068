package lora

import (
	"encoding/binary"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MsgType identifies the wire message kind, carried in the low nibble
// of the frame flags byte.
type MsgType uint8

// Wire message kinds.
const (
	MsgPingReq MsgType = iota
	MsgPing
	MsgDiscoveryReq
	MsgDiscovery
	MsgValueReq
	MsgValue
	MsgConfigReq
	MsgConfig
	MsgConfigSetReq
	MsgServiceReq
)

// msgTypeMask extracts the message kind from the frame flags byte.
const msgTypeMask = 0x0F

// String returns the message kind name.
func (m MsgType) String() string {
	switch m {
	case MsgPingReq:
		return "ping_req"
	case MsgPing:
		return "ping_msg"
	case MsgDiscoveryReq:
		return "discovery_req"
	case MsgDiscovery:
		return "discovery_msg"
	case MsgValueReq:
		return "value_req"
	case MsgValue:
		return "value_msg"
	case MsgConfigReq:
		return "config_req"
	case MsgConfig:
		return "config_msg"
	case MsgConfigSetReq:
		return "config_set_req"
	case MsgServiceReq:
		return "service_req"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// Component is the kind of entity a device exposes.
type Component uint8

// Component kinds, in wire index order.
const (
	ComponentBinarySensor Component = iota
	ComponentSensor
	ComponentCover
)

// componentNames maps wire component indexes to names.
var componentNames = []string{"binary_sensor", "sensor", "cover"}

// String returns the component name.
func (c Component) String() string {
	if int(c) < len(componentNames) {
		return componentNames[c]
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// MarshalYAML serializes the component as its name.
func (c Component) MarshalYAML() (any, error) {
	if int(c) >= len(componentNames) {
		return nil, fmt.Errorf("invalid component %d", uint8(c))
	}
	return c.String(), nil
}

// UnmarshalYAML parses a component from its name.
func (c *Component) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	for i, n := range componentNames {
		if n == name {
			*c = Component(i) // #nosec G115 -- three known components
			return nil
		}
	}
	return fmt.Errorf("unknown component %q", name)
}

// Device class vocabularies, indexed by the wire device_class byte.
// The vocabulary is selected by the component.
// Names follow the Home Assistant integrations.
var (
	coverDeviceClasses = []string{
		"none", "awning", "blind", "curtain", "damper", "door",
		"garage", "gate", "shade", "shutter", "window",
	}

	binarySensorDeviceClasses = []string{
		"none", "battery", "battery_charging", "cold", "connectivity",
		"door", "garage_door", "gas", "heat", "light", "lock",
		"moisture", "motion", "moving", "occupancy", "opening", "plug",
		"power", "presence", "problem", "safety", "smoke", "sound",
		"vibration", "window",
	}

	sensorDeviceClasses = []string{
		"none", "apparent_power", "aqi", "atmospheric_pressure",
		"battery", "carbon_dioxide", "carbon_monoxide", "current",
		"data_rate", "data_size", "date", "distance", "duration",
		"energy", "enum_class", "frequency", "gas", "humidity",
		"illuminance", "irradiance", "moisture", "monetary",
		"nitrogen_dioxide", "nitrogen_monoxide", "nitrous_oxide",
		"ozone", "pm1", "pm10", "pm25", "power_factor", "power",
		"precipitation", "precipitation_intensity", "pressure",
		"reactive_power", "signal_strength", "sound_pressure", "speed",
		"sulphur_dioxide", "temperature", "timestamp",
		"volatile_organic_compounds", "voltage", "volume", "water",
		"weight", "wind_speed",
	}
)

// unitNames maps wire unit indexes to unit strings.
var unitNames = []string{
	"", "°C", "°F", "K", "%", "km", "m", "dm", "cm", "mm", "μm", "s", "ms",
}

// sizeTable maps the 2-bit wire size code to a byte width.
// Code 3 means variable size.
var sizeTable = []uint8{1, 2, 4, 0}

// deviceClassVocabulary returns the device class vocabulary for a component.
func deviceClassVocabulary(c Component) ([]string, error) {
	switch c {
	case ComponentBinarySensor:
		return binarySensorDeviceClasses, nil
	case ComponentSensor:
		return sensorDeviceClasses, nil
	case ComponentCover:
		return coverDeviceClasses, nil
	default:
		return nil, fmt.Errorf("unknown component index %d", uint8(c))
	}
}

// ConfigItem is one configurable sub-parameter of an entity.
type ConfigItem struct {
	ID        uint8  `yaml:"id"`
	Unit      string `yaml:"unit"`
	Signed    bool   `yaml:"signed"`
	Size      uint8  `yaml:"size"`
	Precision uint8  `yaml:"precision"`
}

// Descriptor is the radio-announced metadata for one entity.
type Descriptor struct {
	EntityID    uint8        `yaml:"entity_id"`
	Component   Component    `yaml:"component"`
	DeviceClass string       `yaml:"device_class"`
	Unit        string       `yaml:"unit"`
	Signed      bool         `yaml:"signed"`
	Size        uint8        `yaml:"size"`
	Precision   uint8        `yaml:"precision"`
	ConfigItems []ConfigItem `yaml:"config_items,omitempty"`
}

// Equal reports whether two descriptors match field for field,
// excluding config items.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.EntityID == other.EntityID &&
		d.Component == other.Component &&
		d.DeviceClass == other.DeviceClass &&
		d.Unit == other.Unit &&
		d.Signed == other.Signed &&
		d.Size == other.Size &&
		d.Precision == other.Precision
}

// PingMsg is a decoded ping response.
type PingMsg struct {
	RSSI int // dBm, as measured by the remote node
}

// ValueItem is one (entity id, raw magnitude) pair from a value frame.
type ValueItem struct {
	EntityID uint8
	Raw      uint32
}

// ValueMsg is a decoded value response.
type ValueMsg struct {
	Items []ValueItem
}

// Wire layout sizes.
const (
	pingMsgLen        = 2 // reserved + rssi
	discoveryFixedLen = 7 // through the config item count
	configItemLen     = 3 // id + unit + meta
	valueHeaderLen    = 2 // reserved + item count
	valueItemLen      = 5 // entity id + 4-byte magnitude
)

// DecodePingMsg decodes a ping response payload.
//
// Layout: byte0 reserved, byte1 signed 8-bit RSSI.
func DecodePingMsg(payload []byte) (PingMsg, error) {
	if len(payload) < pingMsgLen {
		return PingMsg{}, fmt.Errorf("%w: ping needs %d bytes, got %d",
			ErrMalformedFrame, pingMsgLen, len(payload))
	}
	return PingMsg{RSSI: int(int8(payload[1]))}, nil
}

// DecodeDiscoveryMsg decodes a discovery response payload into an
// entity descriptor.
//
// Layout: byte1 entity id, byte2 component index, byte3 device class
// index (vocabulary selected by component), byte4 unit index, byte5
// meta bitfield, byte6 config item count N, then N groups of 3 bytes.
func DecodeDiscoveryMsg(payload []byte) (Descriptor, error) {
	if len(payload) < discoveryFixedLen {
		return Descriptor{}, fmt.Errorf("%w: discovery needs %d bytes, got %d",
			ErrMalformedFrame, discoveryFixedLen, len(payload))
	}

	component := Component(payload[2])
	vocab, err := deviceClassVocabulary(component)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	if int(payload[3]) >= len(vocab) {
		return Descriptor{}, fmt.Errorf("%w: device class index %d out of range for %s",
			ErrMalformedFrame, payload[3], component)
	}
	if int(payload[4]) >= len(unitNames) {
		return Descriptor{}, fmt.Errorf("%w: unit index %d out of range",
			ErrMalformedFrame, payload[4])
	}

	signed, size, precision := decodeMeta(payload[5])

	d := Descriptor{
		EntityID:    payload[1],
		Component:   component,
		DeviceClass: vocab[payload[3]],
		Unit:        unitNames[payload[4]],
		Signed:      signed,
		Size:        size,
		Precision:   precision,
	}

	count := int(payload[6])
	need := discoveryFixedLen + count*configItemLen
	if len(payload) < need {
		return Descriptor{}, fmt.Errorf("%w: %d config items need %d bytes, got %d",
			ErrMalformedFrame, count, need, len(payload))
	}

	offset := discoveryFixedLen
	for i := 0; i < count; i++ {
		item, err := decodeConfigItem(payload[offset : offset+configItemLen])
		if err != nil {
			return Descriptor{}, err
		}
		d.ConfigItems = append(d.ConfigItems, item)
		offset += configItemLen
	}

	return d, nil
}

// decodeConfigItem decodes a 3-byte config item group.
func decodeConfigItem(b []byte) (ConfigItem, error) {
	if int(b[1]) >= len(unitNames) {
		return ConfigItem{}, fmt.Errorf("%w: config item unit index %d out of range",
			ErrMalformedFrame, b[1])
	}
	signed, size, precision := decodeMeta(b[2])
	return ConfigItem{
		ID:        b[0],
		Unit:      unitNames[b[1]],
		Signed:    signed,
		Size:      size,
		Precision: precision,
	}, nil
}

// decodeMeta unpacks the signed/size/precision bitfield:
// bit4 signed, bits3-2 size code, bits1-0 precision.
func decodeMeta(b byte) (signed bool, size uint8, precision uint8) {
	return (b & 0x10) != 0, sizeTable[(b&0x0C)>>2], b & 0x03
}

// DecodeValueMsg decodes a value response payload.
//
// Layout: byte1 item count N, then N groups of 5 bytes (entity id +
// big-endian unsigned 32-bit magnitude).
func DecodeValueMsg(payload []byte) (ValueMsg, error) {
	if len(payload) < valueHeaderLen {
		return ValueMsg{}, fmt.Errorf("%w: value needs %d bytes, got %d",
			ErrMalformedFrame, valueHeaderLen, len(payload))
	}

	count := int(payload[1])
	need := valueHeaderLen + count*valueItemLen
	if len(payload) < need {
		return ValueMsg{}, fmt.Errorf("%w: %d value items need %d bytes, got %d",
			ErrMalformedFrame, count, need, len(payload))
	}

	msg := ValueMsg{Items: make([]ValueItem, 0, count)}
	offset := valueHeaderLen
	for i := 0; i < count; i++ {
		msg.Items = append(msg.Items, ValueItem{
			EntityID: payload[offset],
			Raw:      binary.BigEndian.Uint32(payload[offset+1 : offset+valueItemLen]),
		})
		offset += valueItemLen
	}

	return msg, nil
}

// EncodePingMsg encodes a ping response carrying the RSSI at which the
// request was received. RSSI is clamped to the signed 8-bit range.
func EncodePingMsg(rssi int) []byte {
	if rssi < -128 {
		rssi = -128
	}
	if rssi > 127 {
		rssi = 127
	}
	return []byte{0x00, byte(int8(rssi))}
}

// EncodePingReq encodes a ping request payload. The message kind
// travels in the frame flags, so the payload is empty.
func EncodePingReq() []byte {
	return []byte{}
}

// EncodeDiscoveryReq encodes a discovery request for one entity.
func EncodeDiscoveryReq(entityID uint8) []byte {
	return []byte{entityID}
}

// EncodeValueReq encodes a value request for one entity.
func EncodeValueReq(entityID uint8) []byte {
	return []byte{entityID}
}

// EncodeConfigReq encodes a config request for one entity.
func EncodeConfigReq(entityID uint8) []byte {
	return []byte{entityID}
}

// ConfigValue is one config item assignment for a config-set request.
type ConfigValue struct {
	ID    uint8
	Value uint32
}

// EncodeConfigSetReq encodes a config-set request: entity id, item
// count, then per item a 1-byte config id and 4-byte big-endian value.
func EncodeConfigSetReq(entityID uint8, values []ConfigValue) []byte {
	payload := make([]byte, 2, 2+len(values)*5)
	payload[0] = entityID
	payload[1] = uint8(len(values)) // #nosec G115 -- bounded by caller validation
	for _, v := range values {
		var raw [4]byte
		binary.BigEndian.PutUint32(raw[:], v.Value)
		payload = append(payload, v.ID)
		payload = append(payload, raw[:]...)
	}
	return payload
}

// EncodeServiceReq encodes a service request: entity id and service code.
func EncodeServiceReq(entityID, service uint8) []byte {
	return []byte{entityID, service}
}

// EncodeConfigItem encodes a config item to its 3-byte wire group.
//
// Returns an error if the unit, size or precision cannot be
// represented on the wire.
func EncodeConfigItem(item ConfigItem) ([]byte, error) {
	unitIdx, err := unitIndex(item.Unit)
	if err != nil {
		return nil, err
	}
	meta, err := encodeMeta(item.Signed, item.Size, item.Precision)
	if err != nil {
		return nil, err
	}
	return []byte{item.ID, unitIdx, meta}, nil
}

// EncodeDiscoveryMsg encodes a descriptor to a discovery response
// payload. Used by tests and by replaying journaled traffic.
func EncodeDiscoveryMsg(d Descriptor) ([]byte, error) {
	vocab, err := deviceClassVocabulary(d.Component)
	if err != nil {
		return nil, err
	}
	classIdx := -1
	for i, name := range vocab {
		if name == d.DeviceClass {
			classIdx = i
			break
		}
	}
	if classIdx < 0 {
		return nil, fmt.Errorf("device class %q not in %s vocabulary",
			d.DeviceClass, d.Component)
	}
	unitIdx, err := unitIndex(d.Unit)
	if err != nil {
		return nil, err
	}
	meta, err := encodeMeta(d.Signed, d.Size, d.Precision)
	if err != nil {
		return nil, err
	}
	if len(d.ConfigItems) > 255 {
		return nil, fmt.Errorf("too many config items: %d", len(d.ConfigItems))
	}

	payload := make([]byte, discoveryFixedLen, discoveryFixedLen+len(d.ConfigItems)*configItemLen)
	payload[1] = d.EntityID
	payload[2] = uint8(d.Component)
	payload[3] = uint8(classIdx) // #nosec G115 -- vocabularies are < 256 entries
	payload[4] = unitIdx
	payload[5] = meta
	payload[6] = uint8(len(d.ConfigItems)) // #nosec G115 -- checked above

	for _, item := range d.ConfigItems {
		encoded, err := EncodeConfigItem(item)
		if err != nil {
			return nil, err
		}
		payload = append(payload, encoded...)
	}

	return payload, nil
}

// unitIndex resolves a unit string to its wire index.
func unitIndex(unit string) (uint8, error) {
	for i, name := range unitNames {
		if name == unit {
			return uint8(i), nil // #nosec G115 -- unit table is < 256 entries
		}
	}
	return 0, fmt.Errorf("unit %q not in unit table", unit)
}

// encodeMeta packs the signed/size/precision bitfield.
func encodeMeta(signed bool, size uint8, precision uint8) (byte, error) {
	var code byte
	found := false
	for i, s := range sizeTable {
		if s == size {
			code = byte(i)
			found = true
			break
		}
	}
	if !found {
		return 0, fmt.Errorf("size %d not representable (use 1, 2, 4 or 0)", size)
	}
	if precision > 3 {
		return 0, fmt.Errorf("precision %d not representable (max 3)", precision)
	}

	var b byte
	if signed {
		b |= 0x10
	}
	b |= code << 2
	b |= precision
	return b, nil
}
