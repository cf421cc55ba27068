package lora

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// closeOnce wraps a channel with sync.Once to prevent double-close panics.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

// Default timeouts and intervals for lorad communication.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultReadTimeout is the timeout for individual read operations.
	defaultReadTimeout = 30 * time.Second

	// defaultWriteTimeout is the timeout for write operations.
	defaultWriteTimeout = 5 * time.Second

	// defaultAckTimeout is the maximum wait for a transmit acknowledgment.
	defaultAckTimeout = 5 * time.Second

	// defaultReconnectInterval is the initial delay between reconnection attempts.
	defaultReconnectInterval = 5 * time.Second

	// maxReconnectInterval is the maximum delay between reconnection attempts.
	maxReconnectInterval = 2 * time.Minute

	// readBufferSize is the size of the read buffer for incoming messages.
	readBufferSize = 256

	// frameQueueSize is the buffer size for the frame callback queue.
	frameQueueSize = 100
)

// lorad message types. The daemon speaks a simple framed protocol:
// size(2, big-endian, = type + payload) + type(2) + payload.
const (
	// loradOpen opens the session; payload is the gateway's own radio
	// address. The daemon echoes the message on success.
	loradOpen uint16 = 0x0001

	// loradRxFrame carries a received radio frame from the daemon:
	// src(1) + flags(1) + rssi(1, signed dBm) + snr(1, signed quarter-dB)
	// followed by the radio payload.
	loradRxFrame uint16 = 0x0010

	// loradTxFrame asks the daemon to transmit: dst(1) + flags(1) + payload.
	loradTxFrame uint16 = 0x0011

	// loradTxResult reports the radio-layer acknowledgment: ack(1).
	loradTxResult uint16 = 0x0012
)

// rxFrameHeaderLen is the fixed prefix of a loradRxFrame payload.
const rxFrameHeaderLen = 4

// snrScale converts the wire quarter-dB SNR to dB.
const snrScale = 4.0

// Frame is one received radio frame with its link metadata.
type Frame struct {
	Src     uint8
	Flags   uint8
	RSSI    int     // dBm
	SNR     float64 // dB
	Payload []byte
}

// Kind returns the message kind from the low nibble of the flags byte.
func (f Frame) Kind() MsgType {
	return MsgType(f.Flags & msgTypeMask)
}

// RadioConfig holds lorad connection configuration.
type RadioConfig struct {
	// Connection is the lorad connection URL.
	// Supported formats:
	//   - "unix:///run/lorad" (Unix socket)
	//   - "tcp://localhost:6750" (TCP)
	Connection string

	// ThisAddress is the gateway's own radio address.
	ThisAddress uint8

	// ConnectTimeout is the maximum time to wait for connection.
	// Default: 10 seconds.
	ConnectTimeout time.Duration

	// ReadTimeout is the timeout for read operations.
	// Default: 30 seconds.
	ReadTimeout time.Duration

	// AckTimeout is the maximum wait for a transmit acknowledgment.
	// Default: 5 seconds.
	AckTimeout time.Duration

	// ReconnectInterval is the initial delay between reconnection attempts.
	// Default: 5 seconds.
	ReconnectInterval time.Duration
}

// RadioStats holds operational statistics.
type RadioStats struct {
	FramesTx        uint64
	FramesRx        uint64
	FramesDropped   uint64 // Frames dropped due to full callback queue
	ErrorsTotal     uint64
	ReconnectsTotal uint64
	LastActivity    time.Time
	Connected       bool
	Reconnecting    bool
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Connector is the radio transport port used by the bridge.
// It allows mocking the lorad client in tests.
type Connector interface {
	Send(ctx context.Context, dst uint8, kind MsgType, payload []byte) (bool, error)
	SetOnFrame(callback func(Frame))
	IsConnected() bool
	Stats() RadioStats
	Close() error
}

// Ensure RadioClient implements Connector.
var _ Connector = (*RadioClient)(nil)

// RadioClient provides connection to the lorad daemon.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Frame callbacks are invoked one at a time from a single worker
//     goroutine, so a callback fully processes one frame before the
//     next is delivered.
//
// Auto-Reconnection:
//   - When the connection is lost, the client automatically attempts
//     to reconnect with exponential backoff up to maxReconnectInterval.
//   - Reconnection stops only when Close() is called.
type RadioClient struct {
	cfg  RadioConfig
	conn net.Conn

	// Connection state
	connMu    sync.RWMutex
	connected bool

	// Reconnection state
	reconnecting   atomic.Bool
	reconnectCount atomic.Int32

	// Frame handler callback
	onFrame    func(Frame)
	callbackMu sync.RWMutex

	// Single worker keeps frame processing serial
	frameQueue chan Frame

	// One transmit in flight at a time; the receive loop routes the
	// daemon's transmit result here.
	sendMu sync.Mutex
	ackCh  chan bool

	// Shutdown coordination
	done *closeOnce
	wg   sync.WaitGroup

	// Logger (optional)
	logger   Logger
	loggerMu sync.RWMutex

	// Statistics
	framesTx        atomic.Uint64
	framesRx        atomic.Uint64
	framesDropped   atomic.Uint64
	errorsTotal     atomic.Uint64
	reconnectsTotal atomic.Uint64
	lastActivity    atomic.Int64 // Unix timestamp
}

// ConnectRadio establishes connection to the lorad daemon.
//
// The connection URL determines the transport:
//   - "unix:///run/lorad" → Unix socket
//   - "tcp://localhost:6750" → TCP socket
//
// After connecting, it opens the session with the gateway's radio
// address and starts a goroutine to receive incoming frames.
//
// Parameters:
//   - ctx: Context for cancellation (used for initial connection)
//   - cfg: Connection configuration
//
// Returns:
//   - *RadioClient: Connected client ready for use
//   - error: If connection or handshake fails
func ConnectRadio(ctx context.Context, cfg RadioConfig) (*RadioClient, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = defaultAckTimeout
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}

	network, address, err := parseConnectionURL(cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	connectCtx := ctx
	if connectCtx == nil {
		connectCtx = context.Background()
	}
	connectCtx, cancel := context.WithTimeout(connectCtx, cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(connectCtx, network, address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial failed: %w", ErrConnectionFailed, err)
	}

	client := &RadioClient{
		cfg:        cfg,
		conn:       conn,
		done:       newCloseOnce(),
		frameQueue: make(chan Frame, frameQueueSize),
		ackCh:      make(chan bool, 1),
	}
	client.lastActivity.Store(time.Now().Unix())

	if err := client.openSession(connectCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: handshake failed: %w", ErrConnectionFailed, err)
	}

	client.connMu.Lock()
	client.connected = true
	client.connMu.Unlock()

	client.wg.Add(1)
	go client.frameWorker()

	client.wg.Add(1)
	go client.receiveLoop()

	return client, nil
}

// parseConnectionURL parses a lorad connection URL into network and address.
func parseConnectionURL(connURL string) (network, address string, err error) {
	u, err := url.Parse(connURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "unix":
		return "unix", u.Path, nil
	case "tcp":
		host := u.Host
		if host == "" {
			host = "localhost:6750"
		}
		return "tcp", host, nil
	default:
		return "", "", fmt.Errorf("unsupported scheme %q (use unix or tcp)", u.Scheme)
	}
}

// EncodeDaemonMessage frames a lorad message: size(2) + type(2) + payload.
// The size field covers type and payload but not itself.
func EncodeDaemonMessage(msgType uint16, payload []byte) []byte {
	msg := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint16(msg[0:2], uint16(2+len(payload))) // #nosec G115 -- payloads are < 64KiB
	binary.BigEndian.PutUint16(msg[2:4], msgType)
	copy(msg[4:], payload)
	return msg
}

// ParseDaemonMessage splits a complete lorad message into type and payload.
func ParseDaemonMessage(msg []byte) (uint16, []byte, error) {
	if len(msg) < 4 {
		return 0, nil, fmt.Errorf("%w: message needs 4 bytes, got %d",
			ErrMalformedFrame, len(msg))
	}
	size := binary.BigEndian.Uint16(msg[0:2])
	if int(size) != len(msg)-2 {
		return 0, nil, fmt.Errorf("%w: size field %d does not match message length %d",
			ErrMalformedFrame, size, len(msg))
	}
	return binary.BigEndian.Uint16(msg[2:4]), msg[4:], nil
}

// openSession sends the loradOpen message with this gateway's address
// and waits for the daemon's echo. It respects the context deadline so
// the overall connect timeout is honoured.
func (c *RadioClient) openSession(ctx context.Context) error {
	msg := EncodeDaemonMessage(loradOpen, []byte{c.cfg.ThisAddress})

	writeDeadline := time.Now().Add(defaultWriteTimeout)
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(writeDeadline) {
		writeDeadline = deadline
	}
	if err := c.conn.SetWriteDeadline(writeDeadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	if _, err := c.conn.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	readDeadline := time.Now().Add(c.cfg.ReadTimeout)
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(readDeadline) {
		readDeadline = deadline
	}
	if err := c.conn.SetReadDeadline(readDeadline); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}

	sizeBytes := make([]byte, 2)
	if _, err := io.ReadFull(c.conn, sizeBytes); err != nil {
		return fmt.Errorf("read response size: %w", err)
	}

	msgSize := binary.BigEndian.Uint16(sizeBytes)
	if msgSize < 2 {
		return fmt.Errorf("invalid response size: %d", msgSize)
	}

	resp := make([]byte, 2+int(msgSize))
	copy(resp[:2], sizeBytes)
	if _, err := io.ReadFull(c.conn, resp[2:]); err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	msgType, _, err := ParseDaemonMessage(resp)
	if err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if msgType != loradOpen {
		return fmt.Errorf("unexpected response type: 0x%04X", msgType)
	}

	return nil
}

// receiveLoop continuously reads messages from lorad.
// On connection loss, it automatically attempts reconnection with
// exponential backoff.
func (c *RadioClient) receiveLoop() {
	defer c.wg.Done()

	buf := make([]byte, readBufferSize)

	for {
		select {
		case <-c.done.Done():
			return
		default:
		}

		msgType, payload, err := c.readMessage(buf)
		if err != nil {
			if c.handleReadError(err) {
				if c.isClosed() {
					return
				}
				if !c.reconnect() {
					return
				}
				continue
			}
			continue
		}

		switch msgType {
		case loradRxFrame:
			c.handleRxFrame(payload)
		case loradTxResult:
			c.handleTxResult(payload)
		}
	}
}

// readMessage reads a single lorad message from the connection.
// If the message is oversized, returns ErrProtocolDesync which is fatal.
func (c *RadioClient) readMessage(buf []byte) (uint16, []byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
		c.logError("set read deadline failed", err)
		return 0, nil, fmt.Errorf("set deadline: %w", err)
	}

	if _, err := io.ReadFull(c.conn, buf[:2]); err != nil {
		return 0, nil, fmt.Errorf("read size: %w", err)
	}

	msgSize := binary.BigEndian.Uint16(buf[:2])
	if msgSize < 2 {
		c.errorsTotal.Add(1)
		return 0, nil, fmt.Errorf("invalid message size: %d (minimum 2 for type field)",
			msgSize)
	}

	totalLen := 2 + int(msgSize)

	// Oversized message detection. We cannot safely skip the message
	// because we'd need to read and discard an unknown number of bytes,
	// risking incorrect framing. Closing the connection forces a clean
	// reconnect.
	if totalLen > len(buf) {
		c.errorsTotal.Add(1)
		c.logError("oversized message, closing connection to prevent desync",
			fmt.Errorf("size %d exceeds buffer %d", totalLen, len(buf)))
		return 0, nil, ErrProtocolDesync
	}

	if _, err := io.ReadFull(c.conn, buf[2:totalLen]); err != nil {
		return 0, nil, fmt.Errorf("read message: %w", err)
	}

	msgType, payload, err := ParseDaemonMessage(buf[:totalLen])
	if err != nil {
		c.logError("parse message failed", err)
		c.errorsTotal.Add(1)
		return 0, nil, nil // Recoverable
	}

	return msgType, payload, nil
}

// handleReadError processes a read error and returns true if the loop
// should reconnect or stop.
func (c *RadioClient) handleReadError(err error) bool {
	if err == nil {
		return false
	}

	if c.isClosed() {
		return true
	}

	if errors.Is(err, ErrProtocolDesync) {
		c.logError("protocol desync detected, closing socket", err)
		if c.conn != nil {
			c.conn.Close()
		}
		c.handleDisconnect()
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false // Timeout is normal, continue
	}

	c.logError("read failed", err)
	c.errorsTotal.Add(1)
	c.handleDisconnect()
	return true
}

// handleRxFrame queues a received radio frame for the callback worker.
func (c *RadioClient) handleRxFrame(payload []byte) {
	if len(payload) < rxFrameHeaderLen {
		c.logError("short rx frame", fmt.Errorf("got %d bytes", len(payload)))
		c.errorsTotal.Add(1)
		return
	}

	frame := Frame{
		Src:     payload[0],
		Flags:   payload[1],
		RSSI:    int(int8(payload[2])),
		SNR:     float64(int8(payload[3])) / snrScale,
		Payload: append([]byte(nil), payload[rxFrameHeaderLen:]...),
	}

	c.framesRx.Add(1)
	c.lastActivity.Store(time.Now().Unix())

	c.callbackMu.RLock()
	hasCallback := c.onFrame != nil
	c.callbackMu.RUnlock()

	if hasCallback {
		select {
		case c.frameQueue <- frame:
		default:
			// Queue full, drop frame to prevent memory exhaustion
			c.logError("frame queue full, dropping frame", nil)
			c.framesDropped.Add(1)
			c.errorsTotal.Add(1)
		}
	}
}

// handleTxResult routes the daemon's transmit acknowledgment to the
// waiting Send call.
func (c *RadioClient) handleTxResult(payload []byte) {
	if len(payload) < 1 {
		c.logError("short tx result", fmt.Errorf("got %d bytes", len(payload)))
		c.errorsTotal.Add(1)
		return
	}

	select {
	case c.ackCh <- payload[0] != 0:
	default:
		// No Send is waiting; a late result after an ack timeout.
	}
}

// frameWorker delivers queued frames to the callback one at a time.
func (c *RadioClient) frameWorker() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done.Done():
			c.drainFrameQueue()
			return
		case frame := <-c.frameQueue:
			c.callbackMu.RLock()
			callback := c.onFrame
			c.callbackMu.RUnlock()

			if callback != nil {
				func() {
					defer func() {
						if r := recover(); r != nil {
							c.logError("frame callback panic", fmt.Errorf("%v", r))
						}
					}()
					callback(frame)
				}()
			}
		}
	}
}

// handleDisconnect handles connection loss and triggers reconnection.
func (c *RadioClient) handleDisconnect() {
	c.connMu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.connMu.Unlock()

	if wasConnected {
		c.logInfo("connection lost, will attempt reconnection")
	}
}

// reconnect attempts to re-establish the connection to lorad with
// exponential backoff. Returns true if reconnection succeeded, false
// if shutdown was signalled.
func (c *RadioClient) reconnect() bool {
	if !c.reconnecting.CompareAndSwap(false, true) {
		return c.waitForReconnection()
	}
	defer c.reconnecting.Store(false)

	network, address, err := parseConnectionURL(c.cfg.Connection)
	if err != nil {
		c.logError("reconnect: invalid connection URL", err)
		return false
	}

	backoff := c.cfg.ReconnectInterval
	if backoff == 0 {
		backoff = defaultReconnectInterval
	}

	for {
		if c.isClosed() {
			return false
		}

		attempt := c.reconnectCount.Add(1)
		c.logInfo("attempting reconnection", "attempt", attempt, "backoff", backoff.String())

		c.closeOldConnection()

		conn, err := c.dialWithTimeout(network, address)
		if err != nil {
			backoff = c.handleReconnectFailure("dial failed", err, backoff)
			if backoff == 0 {
				return false
			}
			continue
		}

		if err := c.establishConnection(conn); err != nil {
			backoff = c.handleReconnectFailure("handshake failed", err, backoff)
			if backoff == 0 {
				return false
			}
			continue
		}

		c.finalizeReconnection()
		return true
	}
}

// waitForReconnection waits for another goroutine to complete reconnection.
func (c *RadioClient) waitForReconnection() bool {
	for c.reconnecting.Load() && !c.isClosed() {
		time.Sleep(100 * time.Millisecond)
	}
	return !c.isClosed() && c.IsConnected()
}

// closeOldConnection closes the existing connection if any.
func (c *RadioClient) closeOldConnection() {
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()
}

// dialWithTimeout attempts to dial the network address with timeout.
func (c *RadioClient) dialWithTimeout(network, address string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dial %s://%s: %w", network, address, err)
	}
	return conn, nil
}

// establishConnection sets up the connection and performs the handshake.
func (c *RadioClient) establishConnection(conn net.Conn) error {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
	defer cancel()

	if err := c.openSession(ctx); err != nil {
		conn.Close()
		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		return err
	}
	return nil
}

// handleReconnectFailure handles a failed reconnection attempt.
// Returns the new backoff duration, or 0 if shutdown was signalled.
func (c *RadioClient) handleReconnectFailure(reason string, err error, backoff time.Duration) time.Duration {
	c.logError("reconnect: "+reason, err)
	c.errorsTotal.Add(1)

	select {
	case <-c.done.Done():
		return 0
	case <-time.After(backoff):
	}

	newBackoff := time.Duration(float64(backoff) * 1.5)
	if newBackoff > maxReconnectInterval {
		newBackoff = maxReconnectInterval
	}
	return newBackoff
}

// finalizeReconnection marks the connection as established and updates stats.
func (c *RadioClient) finalizeReconnection() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	c.reconnectCount.Store(0)
	c.reconnectsTotal.Add(1)
	c.lastActivity.Store(time.Now().Unix())

	c.logInfo("reconnection successful", "total_reconnects", c.reconnectsTotal.Load())
}

// drainFrameQueue discards any remaining frames during shutdown.
func (c *RadioClient) drainFrameQueue() {
	for {
		select {
		case <-c.frameQueue:
		default:
			return
		}
	}
}

// isClosed returns true if the client has been closed.
func (c *RadioClient) isClosed() bool {
	select {
	case <-c.done.Done():
		return true
	default:
		return false
	}
}

// Close gracefully closes the connection.
//
// It signals the receive loop to stop and closes the underlying
// network connection. Safe to call multiple times.
//
// Returns:
//   - error: nil (closing is best-effort)
func (c *RadioClient) Close() error {
	c.done.Close()

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	if c.conn != nil {
		c.conn.Close()
	}

	c.wg.Wait()

	c.logInfo("connection closed")
	return nil
}

// Send transmits a frame to a radio node and waits for the radio-layer
// acknowledgment result.
//
// One transmit is in flight at a time; concurrent callers serialize.
//
// Parameters:
//   - ctx: Context for cancellation
//   - dst: Destination radio address (255 broadcasts to all nodes)
//   - kind: Message kind for the frame flags
//   - payload: Encoded message payload
//
// Returns:
//   - bool: true if the destination acknowledged the frame
//   - error: If the client is disconnected or the write fails
func (c *RadioClient) Send(ctx context.Context, dst uint8, kind MsgType, payload []byte) (bool, error) {
	if !c.IsConnected() {
		return false, ErrNotConnected
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	// Discard a stale result from a previous timed-out send.
	select {
	case <-c.ackCh:
	default:
	}

	body := make([]byte, 2+len(payload))
	body[0] = dst
	body[1] = uint8(kind) & msgTypeMask
	copy(body[2:], payload)
	msg := EncodeDaemonMessage(loradTxFrame, body)

	deadline := time.Now().Add(defaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()

	if conn == nil {
		return false, ErrNotConnected
	}

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return false, fmt.Errorf("%w: set deadline: %w", ErrSendFailed, err)
	}

	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%w: %w", ErrSendFailed, ctx.Err())
	default:
	}

	if _, err := conn.Write(msg); err != nil {
		c.errorsTotal.Add(1)
		return false, fmt.Errorf("%w: write: %w", ErrSendFailed, err)
	}

	c.framesTx.Add(1)
	c.lastActivity.Store(time.Now().Unix())

	// Bounded wait for the daemon's transmit result.
	select {
	case ack := <-c.ackCh:
		return ack, nil
	case <-time.After(c.cfg.AckTimeout):
		return false, nil
	case <-ctx.Done():
		return false, fmt.Errorf("%w: %w", ErrSendFailed, ctx.Err())
	}
}

// SetOnFrame sets the callback for received frames.
//
// The callback is invoked from a single worker goroutine, one frame at
// a time. Panics in the callback are recovered and logged.
func (c *RadioClient) SetOnFrame(callback func(Frame)) {
	c.callbackMu.Lock()
	c.onFrame = callback
	c.callbackMu.Unlock()
}

// SetLogger sets the logger for this client.
func (c *RadioClient) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// IsConnected returns true if connected to lorad.
func (c *RadioClient) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// Stats returns current operational statistics.
func (c *RadioClient) Stats() RadioStats {
	return RadioStats{
		FramesTx:        c.framesTx.Load(),
		FramesRx:        c.framesRx.Load(),
		FramesDropped:   c.framesDropped.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
		ReconnectsTotal: c.reconnectsTotal.Load(),
		LastActivity:    time.Unix(c.lastActivity.Load(), 0),
		Connected:       c.IsConnected(),
		Reconnecting:    c.reconnecting.Load(),
	}
}

// HealthCheck verifies the connection is alive.
//
// Note: This only checks connection state. For active verification,
// send a ping request to a known node.
func (c *RadioClient) HealthCheck(_ context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// logInfo logs an info message if logger is set.
func (c *RadioClient) logInfo(msg string, keysAndValues ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (c *RadioClient) logError(msg string, err error) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
