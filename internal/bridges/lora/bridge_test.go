package lora

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

type sentFrame struct {
	dst     uint8
	kind    MsgType
	payload []byte
}

type fakeConnector struct {
	onFrame func(Frame)
	sends   []sentFrame
	ack     bool
	sendErr error
}

func (f *fakeConnector) Send(_ context.Context, dst uint8, kind MsgType, payload []byte) (bool, error) {
	f.sends = append(f.sends, sentFrame{dst: dst, kind: kind, payload: payload})
	return f.ack, f.sendErr
}

func (f *fakeConnector) SetOnFrame(callback func(Frame)) { f.onFrame = callback }
func (f *fakeConnector) IsConnected() bool               { return true }
func (f *fakeConnector) Stats() RadioStats               { return RadioStats{} }
func (f *fakeConnector) Close() error                    { return nil }

type publishCall struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakeSink struct {
	published []publishCall
	err       error
}

func (f *fakeSink) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.published = append(f.published, publishCall{topic, payload, qos, retained})
	return f.err
}

func testBridge(t *testing.T) (*Bridge, *fakeConnector, *fakeSink, *Catalog) {
	t.Helper()

	registryPath := writeRegistry(t, `{
		"devices": {
			"1": {"name": "Garage", "entities": {"5": "Door", "9": "Temperature"}}
		}
	}`)
	registry, err := LoadRegistry(registryPath)
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}

	catalog := NewCatalog(filepath.Join(t.TempDir(), "catalog.yaml"))
	conn := &fakeConnector{ack: true}
	sink := &fakeSink{}

	b := NewBridge(BridgeConfig{
		BaseTopic:       "lora2mqtt",
		DiscoveryPrefix: "homeassistant",
		QoS:             1,
	}, conn, sink, catalog, registry)
	b.Start()

	return b, conn, sink, catalog
}

func TestBridgeEndToEndGarageDoor(t *testing.T) {
	b, _, sink, catalog := testBridge(t)
	catalog.Reconcile(testDescriptor(5)) // cover, door, unsigned, precision 0

	b.handleFrame(Frame{
		Src:     1,
		Flags:   uint8(MsgValue),
		RSSI:    -87,
		SNR:     9.5,
		Payload: []byte{0x00, 1, 5, 0x00, 0x00, 0x00, 0x01},
	})

	if len(sink.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(sink.published))
	}
	pub := sink.published[0]
	if pub.topic != "lora2mqtt/garage/state" {
		t.Errorf("topic = %q, want lora2mqtt/garage/state", pub.topic)
	}
	if pub.qos != 1 || pub.retained {
		t.Errorf("qos = %d retained = %v, want 1/false", pub.qos, pub.retained)
	}

	var state map[string]any
	if err := json.Unmarshal(pub.payload, &state); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if len(state) != 1 || state["door"] != "open" {
		t.Errorf(`state = %v, want {"door":"open"}`, state)
	}
}

func TestBridgeUnknownSenderDropped(t *testing.T) {
	b, conn, sink, catalog := testBridge(t)

	b.handleFrame(Frame{
		Src:     99,
		Flags:   uint8(MsgDiscovery),
		Payload: []byte{0x00, 5, 2, 5, 0, 0x00, 0},
	})

	if len(sink.published) != 0 {
		t.Error("unknown sender must not reach the sink")
	}
	if len(conn.sends) != 0 {
		t.Error("unknown sender must not trigger sends")
	}
	if catalog.Len() != 0 {
		t.Error("unknown sender must not mutate the catalog")
	}
}

func TestBridgePartialFailureIsolation(t *testing.T) {
	b, _, sink, catalog := testBridge(t)
	catalog.Reconcile(testDescriptor(5))

	// Entity 77 is not in the catalog; entity 5 must still publish
	b.handleFrame(Frame{
		Src:   1,
		Flags: uint8(MsgValue),
		Payload: []byte{
			0x00, 2,
			77, 0x00, 0x00, 0x00, 0x07,
			5, 0x00, 0x00, 0x00, 0x00,
		},
	})

	if len(sink.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(sink.published))
	}

	var state map[string]any
	if err := json.Unmarshal(sink.published[0].payload, &state); err != nil {
		t.Fatal(err)
	}
	if len(state) != 1 || state["door"] != "closed" {
		t.Errorf(`state = %v, want {"door":"closed"}`, state)
	}
}

func TestBridgeValueFrameAllUnknownEntities(t *testing.T) {
	b, _, sink, _ := testBridge(t)

	b.handleFrame(Frame{
		Src:     1,
		Flags:   uint8(MsgValue),
		Payload: []byte{0x00, 1, 77, 0x00, 0x00, 0x00, 0x01},
	})

	if len(sink.published) != 0 {
		t.Error("no valid entities must mean no publish")
	}
}

func TestBridgeMalformedValueFrameDropped(t *testing.T) {
	b, _, sink, catalog := testBridge(t)
	catalog.Reconcile(testDescriptor(5))

	// Declares 3 items but carries only 1
	b.handleFrame(Frame{
		Src:     1,
		Flags:   uint8(MsgValue),
		Payload: []byte{0x00, 3, 5, 0x00, 0x00, 0x00, 0x01},
	})

	if len(sink.published) != 0 {
		t.Error("malformed frame must not publish")
	}
}

func TestBridgeDiscoveryReconcilesAndAnnounces(t *testing.T) {
	b, _, sink, catalog := testBridge(t)

	payload, err := EncodeDiscoveryMsg(testDescriptor(5))
	if err != nil {
		t.Fatal(err)
	}
	frame := Frame{Src: 1, Flags: uint8(MsgDiscovery), Payload: payload}

	b.handleFrame(frame)

	if catalog.Len() != 1 {
		t.Fatalf("catalog has %d entities, want 1", catalog.Len())
	}
	if len(sink.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(sink.published))
	}
	pub := sink.published[0]
	if pub.topic != "homeassistant/cover/garage/door/config" {
		t.Errorf("topic = %q", pub.topic)
	}
	if !pub.retained {
		t.Error("discovery announcements must be retained")
	}

	var announce map[string]any
	if err := json.Unmarshal(pub.payload, &announce); err != nil {
		t.Fatal(err)
	}
	if announce["device_class"] != "door" {
		t.Errorf("device_class = %v, want door", announce["device_class"])
	}
	if announce["state_topic"] != "lora2mqtt/garage/state" {
		t.Errorf("state_topic = %v", announce["state_topic"])
	}

	// Same frame again: catalog unchanged, but announced again so a
	// re-subscribed listener stays current
	b.handleFrame(frame)
	if catalog.Len() != 1 {
		t.Errorf("catalog has %d entities after repeat, want 1", catalog.Len())
	}
	if len(sink.published) != 2 {
		t.Errorf("published %d messages after repeat, want 2", len(sink.published))
	}
}

func TestBridgePingReqReplies(t *testing.T) {
	b, conn, _, _ := testBridge(t)

	b.handleFrame(Frame{
		Src:     1,
		Flags:   uint8(MsgPingReq),
		RSSI:    -87,
		Payload: []byte{},
	})

	if len(conn.sends) != 1 {
		t.Fatalf("sent %d frames, want 1", len(conn.sends))
	}
	reply := conn.sends[0]
	if reply.dst != 1 || reply.kind != MsgPing {
		t.Errorf("reply = %+v, want ping_msg to address 1", reply)
	}
	if len(reply.payload) != 2 || int(int8(reply.payload[1])) != -87 {
		t.Errorf("reply payload = %v, want RSSI -87", reply.payload)
	}
}

func TestBridgeAnnounceAll(t *testing.T) {
	b, _, sink, catalog := testBridge(t)
	catalog.Reconcile(testDescriptor(5))
	// Entity 9 is named in the registry but absent from the catalog

	b.AnnounceAll()

	if len(sink.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(sink.published))
	}
	if sink.published[0].topic != "homeassistant/cover/garage/door/config" {
		t.Errorf("topic = %q", sink.published[0].topic)
	}
}

func TestBridgeOutboundValidation(t *testing.T) {
	b, conn, _, _ := testBridge(t)
	ctx := context.Background()

	if err := b.SendPing(ctx, 300); !errors.Is(err, ErrValidation) {
		t.Errorf("SendPing(300) error = %v, want ErrValidation", err)
	}
	if err := b.RequestDiscovery(ctx, 1, -1); !errors.Is(err, ErrValidation) {
		t.Errorf("RequestDiscovery entity -1 error = %v, want ErrValidation", err)
	}
	if err := b.RequestService(ctx, 1, 5, 999); !errors.Is(err, ErrValidation) {
		t.Errorf("RequestService code 999 error = %v, want ErrValidation", err)
	}
	if len(conn.sends) != 0 {
		t.Error("validation failures must not contact the transport")
	}
}

func TestBridgeOutboundRequests(t *testing.T) {
	b, conn, _, _ := testBridge(t)
	ctx := context.Background()

	if err := b.SendPing(ctx, 255); err != nil {
		t.Fatalf("SendPing failed: %v", err)
	}
	if err := b.RequestValue(ctx, 1, 5); err != nil {
		t.Fatalf("RequestValue failed: %v", err)
	}
	if err := b.RequestService(ctx, 1, 5, 2); err != nil {
		t.Fatalf("RequestService failed: %v", err)
	}

	if len(conn.sends) != 3 {
		t.Fatalf("sent %d frames, want 3", len(conn.sends))
	}
	if conn.sends[0].kind != MsgPingReq || conn.sends[0].dst != 255 {
		t.Errorf("first send = %+v", conn.sends[0])
	}
	if conn.sends[1].kind != MsgValueReq || conn.sends[1].payload[0] != 5 {
		t.Errorf("second send = %+v", conn.sends[1])
	}
	if conn.sends[2].kind != MsgServiceReq || len(conn.sends[2].payload) != 2 {
		t.Errorf("third send = %+v", conn.sends[2])
	}
}

func TestBridgeSendWithoutAck(t *testing.T) {
	b, conn, _, _ := testBridge(t)
	conn.ack = false

	// A missing acknowledgment is logged, not an error, and not retried
	if err := b.SendPing(context.Background(), 1); err != nil {
		t.Errorf("SendPing without ack returned error: %v", err)
	}
	if len(conn.sends) != 1 {
		t.Errorf("sent %d frames, want exactly 1 (no retry)", len(conn.sends))
	}
}

func TestBridgeSendTransportError(t *testing.T) {
	b, conn, _, _ := testBridge(t)
	conn.sendErr = ErrNotConnected

	if err := b.SendPing(context.Background(), 1); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SendPing error = %v, want ErrNotConnected", err)
	}
}
