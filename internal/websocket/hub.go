package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain"
	"github.com/satriahrh/marcus/domain/repositories"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Longest single utterance streamed to speech recognition
	maxUtterance = 60 * time.Second

	// Recognized utterances waiting for the conversation loop
	utteranceBuffer = 4
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// devices are not browsers; auth is the bearer token
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Conversation runs one assistant conversation over a channel until it ends
type Conversation interface {
	Run(ctx context.Context, ch repositories.Channel, channelName string) error
}

// Options tunes how device audio is recognized
type Options struct {
	// Audio is the recognition config used unless listening_start overrides it
	Audio repositories.AudioConfig
	// ListenTimeout bounds how long Listen waits for a phrase to start
	ListenTimeout time.Duration
}

// Hub maintains the set of connected devices. Each device gets its own
// conversation goroutine.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Tracks the pump and conversation goroutines of every connection
	conns sync.WaitGroup

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	conversation Conversation
	sttRepo      repositories.SpeechToText
	ttsRepo      repositories.TextToSpeech
	opts         Options

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub. sttRepo and ttsRepo may be nil; without
// them devices must send utterance frames and replies carry text only.
func NewHub(
	conversation Conversation,
	sttRepo repositories.SpeechToText,
	ttsRepo repositories.TextToSpeech,
	opts Options,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		conversation: conversation,
		sttRepo:      sttRepo,
		ttsRepo:      ttsRepo,
		opts:         opts,
		logger:       logger,
	}
}

// Run starts the hub's main loop. When ctx is done every device is disconnected.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			previous, replaced := h.clients[client.deviceID]
			h.clients[client.deviceID] = client
			h.mu.Unlock()
			if replaced {
				h.logger.Info("Device reconnected, closing previous connection", zap.String("deviceID", client.deviceID))
				previous.disconnect()
			}
			h.logger.Info("Client registered", zap.String("deviceID", client.deviceID))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.deviceID]; ok && current == client {
				delete(h.clients, client.deviceID)
			}
			h.mu.Unlock()
			client.closeSend()
			h.logger.Info("Client unregistered", zap.String("deviceID", client.deviceID))

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				client.disconnect()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("Hub stopped")
			return
		}
	}
}

// Wait blocks until Run has returned and every connection goroutine has
// exited. Stop accepting connections before calling it.
func (h *Hub) Wait() {
	<-h.done
	h.conns.Wait()
}

// ClientCount returns the number of connected devices
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeIdle disconnects devices that sent nothing for longer than maxIdle
func (h *Hub) closeIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	h.mu.RLock()
	var idle []*Client
	for _, client := range h.clients {
		if client.lastActiveAt().Before(cutoff) {
			idle = append(idle, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range idle {
		h.logger.Info("Closing idle device connection",
			zap.String("deviceID", client.deviceID),
			zap.Time("lastActive", client.lastActiveAt()))
		client.disconnect()
	}
	return len(idle)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage, websocket.BinaryMessage or websocket.CloseMessage
	Type    int
	Payload []byte
}

type utterance struct {
	text string
	err  error
}

// Client is a middleman between the websocket connection and the hub. It is
// also the Channel the device's conversation talks through.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send   chan WriteData
	sendMu sync.Mutex
	closed bool

	// Device ID for this client
	deviceID string

	// Connection-scoped id carried on every protocol frame
	sessionID string

	// Logger
	logger *zap.Logger

	// Cancelled when the connection goes away
	ctx    context.Context
	cancel context.CancelFunc

	utterances chan utterance
	lastActive atomic.Int64

	// Audio streaming session management
	mutex          sync.Mutex
	sttStreaming   repositories.SpeechToTextStreaming
	sttCancel      context.CancelFunc
	chunkCount     int
	listeningStart time.Time

	// Serializes replies so their audio never interleaves
	speakMu sync.Mutex
}

var _ repositories.Channel = (*Client)(nil)

func newClient(hub *Hub, conn *websocket.Conn, deviceID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan WriteData, 256),
		deviceID:   deviceID,
		sessionID:  uuid.NewString(),
		ctx:        ctx,
		cancel:     cancel,
		utterances: make(chan utterance, utteranceBuffer),
	}
	c.logger = hub.logger.With(zap.String("deviceID", deviceID), zap.String("sessionID", c.sessionID))
	c.touch()
	return c
}

// HandleWebSocket upgrades an authenticated device connection and starts
// its conversation
func HandleWebSocket(hub *Hub, c echo.Context, deviceID string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := newClient(hub, conn, deviceID)

	hub.conns.Add(3)
	select {
	case hub.register <- client:
	case <-hub.done:
		hub.conns.Add(-3)
		client.disconnect()
		return nil
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go func() {
		defer hub.conns.Done()
		client.writePump()
	}()
	go func() {
		defer hub.conns.Done()
		client.readPump()
	}()
	go func() {
		defer hub.conns.Done()
		client.converse()
	}()

	return nil
}

// converse runs the assistant on this connection and closes it afterwards
func (c *Client) converse() {
	_ = c.enqueueJSON(CreateSessionMessage(domain.MessageTypeSessionStarted, c.sessionID))

	err := c.hub.conversation.Run(c.ctx, c, "device:"+c.deviceID)
	switch {
	case c.ctx.Err() != nil:
		c.logger.Info("Conversation interrupted by disconnect")
		return
	case err != nil:
		c.logger.Error("Conversation failed", zap.Error(err))
	default:
		c.logger.Info("Conversation finished")
	}

	_ = c.enqueueJSON(CreateSessionMessage(domain.MessageTypeSessionEnded, c.sessionID))
	_ = c.enqueue(WriteData{
		Type:    websocket.CloseMessage,
		Payload: websocket.FormatCloseMessage(websocket.CloseNormalClosure, "conversation ended"),
	})
}

// readPump pumps messages from the websocket connection to the conversation.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.abandonStream()
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
			c.closeSend()
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}
		c.touch()

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the conversation to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}
			if message.Type == websocket.CloseMessage {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage processes control messages from the device
func (c *Client) processMessage(message []byte) {
	msg, err := ParseDeviceMessage(message)
	if err != nil {
		c.logger.Warn("Rejected device message", zap.Error(err))
		_ = c.enqueueJSON(CreateErrorMessage("invalid_message", err.Error()))
		return
	}

	switch msg.Type {
	case domain.MessageTypeListeningStart:
		c.handleListeningStart(msg)
	case domain.MessageTypeListeningEnd:
		c.handleListeningEnd()
	case domain.MessageTypeUtterance:
		c.deliver(utterance{text: msg.Text})
	}
}

// processBinaryAudioChunk forwards audio to the active recognition stream
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.sttStreaming == nil {
		c.logger.Warn("Received binary audio chunk but no listening session is active",
			zap.Int("size", len(data)))
		return
	}

	c.chunkCount++
	if err := c.sttStreaming.Stream(data); err != nil {
		c.logger.Error("Failed to stream audio data", zap.Error(err))
		return
	}

	c.logger.Debug("Streamed audio chunk",
		zap.Int("size", len(data)),
		zap.Int("totalChunks", c.chunkCount))
}

// handleListeningStart opens a recognition stream for the next utterance
func (c *Client) handleListeningStart(msg *domain.DeviceMessage) {
	response := CreateListeningMessage(domain.MessageTypeListeningStart, c.sessionID)
	defer func() { _ = c.enqueueJSON(response) }()

	if c.hub.sttRepo == nil {
		response.Error = "speech recognition is not configured, send utterance messages"
		return
	}

	audioConfig := c.hub.opts.Audio
	if msg.SampleRate > 0 {
		audioConfig.SampleRate = msg.SampleRate
	}
	if msg.Language != "" {
		audioConfig.Language = msg.Language
	}
	if msg.Encoding != "" {
		audioConfig.Encoding = msg.Encoding
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.resetStreamLocked()

	ctx, cancel := context.WithTimeout(c.ctx, maxUtterance)
	stream, err := c.hub.sttRepo.InitTranscribeStreaming(ctx, audioConfig)
	if err != nil {
		cancel()
		c.logger.Error("Failed to initialize streaming transcription", zap.Error(err))
		response.Error = "failed to initialize transcription"
		return
	}

	c.sttStreaming = stream
	c.sttCancel = cancel
	c.chunkCount = 0
	c.listeningStart = time.Now()

	c.logger.Info("Audio session started",
		zap.Int("sampleRate", audioConfig.SampleRate),
		zap.String("language", audioConfig.Language))
	response.Message = "listening started"
}

// handleListeningEnd finishes the stream and hands the transcript to the
// conversation. Recognition errors reach Listen as ErrNoSpeech.
func (c *Client) handleListeningEnd() {
	response := CreateListeningMessage(domain.MessageTypeListeningEnd, c.sessionID)

	c.mutex.Lock()
	stream, cancel := c.sttStreaming, c.sttCancel
	chunks, started := c.chunkCount, c.listeningStart
	c.sttStreaming, c.sttCancel = nil, nil
	c.mutex.Unlock()

	if stream == nil {
		response.Error = "no listening session is active"
		_ = c.enqueueJSON(response)
		return
	}
	defer cancel()

	transcription, err := stream.End()
	result := utterance{text: transcription}
	if err != nil {
		c.logger.Info("Transcription failed", zap.Int("chunks", chunks), zap.Error(err))
		response.Error = err.Error()
		if !errors.Is(err, repositories.ErrNoSpeech) {
			err = fmt.Errorf("%w: %v", repositories.ErrNoSpeech, err)
		}
		result = utterance{err: err}
	} else {
		c.logger.Info("Transcription completed",
			zap.String("transcription", transcription),
			zap.Int("chunks", chunks),
			zap.Duration("duration", time.Since(started)))
		response.Transcription = transcription
	}

	// the device sees the acknowledgement before any reply to it
	_ = c.enqueueJSON(response)
	c.deliver(result)
}

// resetStreamLocked drops an unfinished stream; c.mutex must be held
func (c *Client) resetStreamLocked() {
	if c.sttStreaming == nil {
		return
	}
	c.logger.Warn("Abandoning unfinished listening session", zap.Int("chunks", c.chunkCount))
	c.sttCancel()
	c.sttStreaming, c.sttCancel = nil, nil
}

func (c *Client) abandonStream() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.resetStreamLocked()
}

func (c *Client) streaming() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.sttStreaming != nil
}

func (c *Client) deliver(u utterance) {
	select {
	case c.utterances <- u:
	default:
		c.logger.Warn("Dropping utterance, conversation is busy", zap.String("text", u.text))
	}
}

// Listen waits for the next utterance. It gives up with ErrListenTimeout when
// no phrase starts within the listen window.
func (c *Client) Listen(ctx context.Context) (string, error) {
	text, err := c.next(ctx, c.hub.opts.ListenTimeout)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(text)), nil
}

// Ask speaks the prompt and waits, without a deadline, for the answer
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	if err := c.say(ctx, prompt, true); err != nil {
		return "", err
	}
	text, err := c.next(ctx, 0)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Speak sends the reply text, then its synthesized audio when TTS is configured
func (c *Client) Speak(ctx context.Context, text string) error {
	return c.say(ctx, text, false)
}

func (c *Client) next(ctx context.Context, timeout time.Duration) (string, error) {
	var (
		timer   *time.Timer
		expired <-chan time.Time
	)
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case u := <-c.utterances:
			return u.text, u.err
		case <-expired:
			// a phrase already started; wait for listening_end
			if c.streaming() {
				timer.Reset(timeout)
				continue
			}
			return "", repositories.ErrListenTimeout
		case <-c.ctx.Done():
			return "", io.EOF
		case <-ctx.Done():
			if c.ctx.Err() != nil {
				return "", io.EOF
			}
			return "", ctx.Err()
		}
	}
}

func (c *Client) say(ctx context.Context, text string, prompt bool) error {
	c.speakMu.Lock()
	defer c.speakMu.Unlock()

	if err := c.enqueueJSON(CreateSpeakingMessage(domain.MessageTypeSpeakingStart, c.sessionID, text, prompt)); err != nil {
		return err
	}
	if c.hub.ttsRepo != nil {
		if err := c.streamSpeech(ctx, text); err != nil {
			return err
		}
	}
	return c.enqueueJSON(CreateSpeakingMessage(domain.MessageTypeSpeakingEnd, c.sessionID, "", prompt))
}

// streamSpeech forwards synthesized audio as binary frames. A synthesis
// failure leaves the reply as text only.
func (c *Client) streamSpeech(ctx context.Context, text string) error {
	// stops the synthesizer when the connection goes away mid-reply
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	audio, err := c.hub.ttsRepo.ConvertTextToSpeech(ctx, text)
	if err != nil {
		c.logger.Error("Failed to convert text to speech", zap.Error(err))
		return nil
	}

	for chunk := range audio {
		if err := c.enqueue(WriteData{Type: websocket.BinaryMessage, Payload: chunk}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) enqueueJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return c.enqueue(WriteData{Type: websocket.TextMessage, Payload: payload})
}

// enqueue hands a frame to writePump; io.EOF once the connection is gone
func (c *Client) enqueue(data WriteData) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return io.EOF
	}
	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return io.EOF
	}
}

func (c *Client) closeSend() {
	c.cancel()
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// disconnect drops the connection; readPump then unregisters the client
func (c *Client) disconnect() {
	c.cancel()
	c.conn.Close()
}

func (c *Client) touch() {
	c.lastActive.Store(time.Now().UnixNano())
}

func (c *Client) lastActiveAt() time.Time {
	return time.Unix(0, c.lastActive.Load())
}
