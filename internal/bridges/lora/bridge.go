package lora

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ovenystas/lora2mqtt/internal/infrastructure/mqtt"
)

// BroadcastAddress sends to all radio nodes.
const BroadcastAddress uint8 = 255

// Publisher is the publish/subscribe sink port.
// Satisfied by the mqtt infrastructure client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// FrameRecorder persists raw inbound frames.
// Satisfied by the journal repository.
type FrameRecorder interface {
	Record(ctx context.Context, address uint8, kind string, rssi int, snr float64, payload []byte) error
}

// Telemetry records link quality and decoded values to a time-series
// store. Satisfied by the influxdb client.
type Telemetry interface {
	WriteLinkQuality(device string, address uint8, rssi int, snr float64)
	WriteEntityValue(device string, entity string, value float64)
}

// BridgeConfig holds bridge behaviour configuration.
type BridgeConfig struct {
	// BaseTopic is the root of the state topic family.
	BaseTopic string

	// DiscoveryPrefix is the root of the discovery/config topic family.
	DiscoveryPrefix string

	// QoS is the quality of service level for state publishes.
	QoS byte
}

// Bridge routes inbound radio frames to their handlers and builds
// outbound requests.
//
// Each frame is fully processed, including any catalog mutation and
// synchronous publish, before the next is handled: the radio client
// delivers frames from a single worker goroutine and the bridge keeps
// no other entry points into the catalog.
type Bridge struct {
	cfg      BridgeConfig
	conn     Connector
	sink     Publisher
	catalog  *Catalog
	registry *Registry

	// Optional collaborators
	recorder  FrameRecorder
	telemetry Telemetry
	logger    Logger
}

// NewBridge creates a bridge over the given collaborators.
//
// Parameters:
//   - cfg: Bridge configuration
//   - conn: Radio transport
//   - sink: Publish/subscribe sink
//   - catalog: Entity descriptor catalog (exclusively owned by the bridge)
//   - registry: Static device registry
//
// Returns:
//   - *Bridge: Bridge ready for Start
func NewBridge(cfg BridgeConfig, conn Connector, sink Publisher, catalog *Catalog, registry *Registry) *Bridge {
	return &Bridge{
		cfg:      cfg,
		conn:     conn,
		sink:     sink,
		catalog:  catalog,
		registry: registry,
	}
}

// SetRecorder sets the optional frame journal.
func (b *Bridge) SetRecorder(r FrameRecorder) {
	b.recorder = r
}

// SetTelemetry sets the optional time-series telemetry writer.
func (b *Bridge) SetTelemetry(t Telemetry) {
	b.telemetry = t
}

// SetLogger sets the optional logger.
func (b *Bridge) SetLogger(l Logger) {
	b.logger = l
}

// Start registers the bridge as the radio frame handler.
func (b *Bridge) Start() {
	b.conn.SetOnFrame(b.handleFrame)
	b.logInfo("bridge started", "devices", b.registry.Len(), "catalog_entities", b.catalog.Len())
}

// handleFrame processes one inbound radio frame.
func (b *Bridge) handleFrame(frame Frame) {
	ctx := context.Background()
	kind := frame.Kind()

	if b.recorder != nil {
		if err := b.recorder.Record(ctx, frame.Src, kind.String(), frame.RSSI, frame.SNR, frame.Payload); err != nil {
			b.logWarn("frame journal write failed", "error", err)
		}
	}

	// Unknown senders are dropped before any catalog or sink access.
	device, ok := b.registry.Lookup(frame.Src)
	if !ok {
		b.logWarn("frame from unknown sender dropped",
			"address", frame.Src,
			"kind", kind.String(),
			"payload", hex.EncodeToString(frame.Payload))
		return
	}

	if b.telemetry != nil {
		b.telemetry.WriteLinkQuality(device.Name, frame.Src, frame.RSSI, frame.SNR)
	}

	switch kind {
	case MsgPingReq:
		b.handlePingReq(ctx, frame, device)
	case MsgPing:
		b.handlePing(frame, device)
	case MsgDiscoveryReq:
		b.logInfo("discovery request received, nothing to do", "device", device.Name)
	case MsgDiscovery:
		b.handleDiscovery(frame, device)
	case MsgValueReq:
		b.logWarn("unexpected value request dropped", "device", device.Name)
	case MsgValue:
		b.handleValue(frame, device)
	case MsgConfigReq, MsgConfig, MsgConfigSetReq, MsgServiceReq:
		b.logInfo("message kind not handled inbound", "kind", kind.String(), "device", device.Name)
	default:
		b.logWarn("unknown message kind dropped", "kind", kind.String(), "device", device.Name)
	}
}

// handlePingReq answers a ping request with the RSSI at which it was
// received.
func (b *Bridge) handlePingReq(ctx context.Context, frame Frame, device Device) {
	ack, err := b.conn.Send(ctx, frame.Src, MsgPing, EncodePingMsg(frame.RSSI))
	if err != nil {
		b.logWarn("ping reply failed", "device", device.Name, "error", err)
		return
	}
	if !ack {
		b.logWarn("ping reply not acknowledged", "device", device.Name)
	}
}

// handlePing logs a ping response.
func (b *Bridge) handlePing(frame Frame, device Device) {
	msg, err := DecodePingMsg(frame.Payload)
	if err != nil {
		b.logWarn("malformed ping dropped", "device", device.Name, "error", err)
		return
	}
	b.logInfo("ping from device",
		"device", device.Name,
		"remote_rssi", msg.RSSI,
		"local_rssi", frame.RSSI,
		"snr", frame.SNR)
}

// handleDiscovery reconciles an announced descriptor into the catalog
// and forwards it to the discovery announcement.
func (b *Bridge) handleDiscovery(frame Frame, device Device) {
	descriptor, err := DecodeDiscoveryMsg(frame.Payload)
	if err != nil {
		b.logWarn("malformed discovery dropped", "device", device.Name, "error", err)
		return
	}

	switch b.catalog.Reconcile(descriptor) {
	case ReconcileAdded:
		b.logInfo("entity added to catalog",
			"device", device.Name,
			"entity_id", descriptor.EntityID,
			"component", descriptor.Component.String())
	case ReconcileReplaced:
		b.logWarn("entity metadata diverged, radio side is authoritative",
			"device", device.Name,
			"entity_id", descriptor.EntityID)
	case ReconcileUnchanged:
	}

	if _, err := b.catalog.PersistIfDirty(); err != nil {
		b.logWarn("catalog persist failed, continuing with in-memory catalog", "error", err)
	}

	// Announce even when unchanged so a freshly (re)subscribed listener
	// stays current.
	b.announceEntity(device, descriptor)
}

// handleValue decodes value items, applies value semantics and
// publishes one aggregated state object per frame.
func (b *Bridge) handleValue(frame Frame, device Device) {
	msg, err := DecodeValueMsg(frame.Payload)
	if err != nil {
		b.logWarn("malformed value frame dropped", "device", device.Name, "error", err)
		return
	}

	state := make(map[string]any, len(msg.Items))
	for _, item := range msg.Items {
		descriptor, ok := b.catalog.Get(item.EntityID)
		if !ok {
			b.logWarn("value for unknown entity skipped",
				"device", device.Name,
				"entity_id", item.EntityID,
				"error", ErrUnknownEntity)
			continue
		}

		rep, err := descriptor.Representation(item.Raw)
		if err != nil {
			b.logWarn("value skipped",
				"device", device.Name,
				"entity_id", item.EntityID,
				"error", err)
			continue
		}

		key := entityKey(device.EntityName(item.EntityID))
		state[key] = rep

		if b.telemetry != nil {
			if v, isNumeric := rep.(float64); isNumeric {
				b.telemetry.WriteEntityValue(device.Name, key, v)
			}
		}
	}

	if len(state) == 0 {
		return
	}

	payload, err := json.Marshal(state)
	if err != nil {
		b.logError("state serialization failed", "device", device.Name, "error", err)
		return
	}

	topic := mqtt.StateTopic(b.cfg.BaseTopic, device.Name)
	if err := b.sink.Publish(topic, payload, b.cfg.QoS, false); err != nil {
		b.logWarn("state publish failed", "topic", topic, "error", err)
	}
}

// announceEntity publishes an entity's metadata to its discovery topic.
func (b *Bridge) announceEntity(device Device, descriptor Descriptor) {
	entityName := device.EntityName(descriptor.EntityID)
	key := entityKey(entityName)

	stateTopic := mqtt.StateTopic(b.cfg.BaseTopic, device.Name)

	payload := map[string]any{
		"name":           fmt.Sprintf("%s %s", device.Name, entityName),
		"unique_id":      fmt.Sprintf("lora2mqtt_%d_%d", device.Address, descriptor.EntityID),
		"state_topic":    stateTopic,
		"value_template": fmt.Sprintf("{{ value_json.%s }}", key),
		"device": map[string]any{
			"identifiers": []string{fmt.Sprintf("lora2mqtt_%d", device.Address)},
			"name":        device.Name,
		},
	}
	if descriptor.Unit != "" {
		payload["unit_of_measurement"] = descriptor.Unit
	}
	if descriptor.DeviceClass != "" && descriptor.DeviceClass != "none" {
		payload["device_class"] = descriptor.DeviceClass
	}

	data, err := json.Marshal(payload)
	if err != nil {
		b.logError("discovery serialization failed", "entity", entityName, "error", err)
		return
	}

	topic := mqtt.DiscoveryTopic(b.cfg.DiscoveryPrefix, descriptor.Component.String(), device.Name, entityName)
	if err := b.sink.Publish(topic, data, 1, true); err != nil {
		b.logWarn("discovery publish failed", "topic", topic, "error", err)
	}
}

// AnnounceAll publishes discovery metadata for every catalog entity
// named by any registered device. Called at startup so listeners see
// the catalog state from the previous run.
func (b *Bridge) AnnounceAll() {
	announced := 0
	for _, device := range b.registry.Devices() {
		for entityID := range device.Entities {
			if descriptor, ok := b.catalog.Get(entityID); ok {
				b.announceEntity(device, descriptor)
				announced++
			}
		}
	}
	b.logInfo("discovery announcement complete", "entities", announced)
}

// SendPing sends a ping request to a node.
//
// Parameters:
//   - ctx: Context for cancellation
//   - address: Destination radio address, 0-255 (255 broadcasts)
//
// Returns:
//   - error: ErrValidation if the address is out of range, or a
//     transport error
func (b *Bridge) SendPing(ctx context.Context, address int) error {
	dst, err := validByte("address", address)
	if err != nil {
		return err
	}
	return b.send(ctx, dst, MsgPingReq, EncodePingReq())
}

// RequestDiscovery asks a node to announce one entity's metadata.
func (b *Bridge) RequestDiscovery(ctx context.Context, address, entityID int) error {
	dst, err := validByte("address", address)
	if err != nil {
		return err
	}
	id, err := validByte("entity_id", entityID)
	if err != nil {
		return err
	}
	return b.send(ctx, dst, MsgDiscoveryReq, EncodeDiscoveryReq(id))
}

// RequestValue asks a node to report one entity's current value.
func (b *Bridge) RequestValue(ctx context.Context, address, entityID int) error {
	dst, err := validByte("address", address)
	if err != nil {
		return err
	}
	id, err := validByte("entity_id", entityID)
	if err != nil {
		return err
	}
	return b.send(ctx, dst, MsgValueReq, EncodeValueReq(id))
}

// RequestConfig asks a node to report one entity's configuration.
func (b *Bridge) RequestConfig(ctx context.Context, address, entityID int) error {
	dst, err := validByte("address", address)
	if err != nil {
		return err
	}
	id, err := validByte("entity_id", entityID)
	if err != nil {
		return err
	}
	return b.send(ctx, dst, MsgConfigReq, EncodeConfigReq(id))
}

// SetConfig sends config item assignments to a node.
func (b *Bridge) SetConfig(ctx context.Context, address, entityID int, values []ConfigValue) error {
	dst, err := validByte("address", address)
	if err != nil {
		return err
	}
	id, err := validByte("entity_id", entityID)
	if err != nil {
		return err
	}
	if len(values) > 255 {
		return fmt.Errorf("%w: %d config values exceed frame capacity", ErrValidation, len(values))
	}
	return b.send(ctx, dst, MsgConfigSetReq, EncodeConfigSetReq(id, values))
}

// RequestService invokes a service on a node's entity.
func (b *Bridge) RequestService(ctx context.Context, address, entityID, service int) error {
	dst, err := validByte("address", address)
	if err != nil {
		return err
	}
	id, err := validByte("entity_id", entityID)
	if err != nil {
		return err
	}
	svc, err := validByte("service", service)
	if err != nil {
		return err
	}
	return b.send(ctx, dst, MsgServiceReq, EncodeServiceReq(id, svc))
}

// send performs a best-effort single send with acknowledgment. A
// missing acknowledgment is logged, not retried; retry policy belongs
// to the caller.
func (b *Bridge) send(ctx context.Context, dst uint8, kind MsgType, payload []byte) error {
	ack, err := b.conn.Send(ctx, dst, kind, payload)
	if err != nil {
		return fmt.Errorf("sending %s to %d: %w", kind.String(), dst, err)
	}
	if !ack && dst != BroadcastAddress {
		b.logWarn("no acknowledgment from node", "address", dst, "kind", kind.String())
	}
	return nil
}

// validByte checks that a value fits a wire byte.
func validByte(field string, v int) (uint8, error) {
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%w: %s %d out of range 0-255", ErrValidation, field, v)
	}
	return uint8(v), nil
}

// entityKey converts an entity name to its JSON state key.
func entityKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(key, " ", "_")
}

// logInfo logs an info message if a logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if a logger is set.
func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error if a logger is set.
func (b *Bridge) logError(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Error(msg, keysAndValues...)
	}
}
