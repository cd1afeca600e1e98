// Command devicesim plays the part of a Marcus voice device: it authenticates,
// opens the conversation websocket and sends typed lines as utterances.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain"
	"github.com/satriahrh/marcus/internal/api"
)

type options struct {
	server    string
	serial    string
	secret    string
	wavFile   string
	audioDir  string
	chunkSize int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "devicesim",
		Short: "Simulate a Marcus voice device",
		Long: `Authenticates as a device, connects to /ws and sends every line typed on
stdin as an utterance. Replies are printed; synthesized audio is written to
--audio-dir when set. --wav streams a recording as the first utterance.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.server, "server", "http://localhost:8080", "Marcus server base URL")
	flags.StringVar(&opts.serial, "serial", "MARCUS-001", "device serial number")
	flags.StringVar(&opts.secret, "secret", "", "device secret key")
	flags.StringVar(&opts.wavFile, "wav", "", "audio file to stream as the first utterance")
	flags.StringVar(&opts.audioDir, "audio-dir", "", "directory for received reply audio")
	flags.IntVar(&opts.chunkSize, "chunk-size", 1024, "bytes per binary audio frame")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

func run(ctx context.Context, opts *options, in io.Reader, out io.Writer, logger *zap.Logger) error {
	auth, err := authenticate(ctx, opts.server, opts.serial, opts.secret)
	if err != nil {
		return err
	}
	logger.Info("Device authenticated", zap.String("deviceID", auth.DeviceID), zap.Time("expiresAt", auth.ExpiresAt))

	wsURL, err := websocketURL(opts.server)
	if err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+auth.Token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		receive(conn, out, opts.audioDir, logger)
	}()

	if opts.wavFile != "" {
		if err := streamFile(conn, opts.wavFile, opts.chunkSize); err != nil {
			return err
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return closeGracefully(conn, done)
		case line, ok := <-lines:
			if !ok {
				return closeGracefully(conn, done)
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := conn.WriteJSON(domain.DeviceMessage{Type: domain.MessageTypeUtterance, Text: line}); err != nil {
				return fmt.Errorf("send utterance: %w", err)
			}
		}
	}
}

func authenticate(ctx context.Context, server, serial, secret string) (*api.DeviceAuthResponse, error) {
	body, err := json.Marshal(api.DeviceAuthRequest{SerialNumber: serial, SecretKey: secret})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/api/v1/device/auth", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, fmt.Errorf("authentication failed with status %d: %s", resp.StatusCode, apiErr.Message)
	}

	var authResp api.DeviceAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	return &authResp, nil
}

// websocketURL maps http(s)://host to ws(s)://host/ws
func websocketURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// streamFile sends a recording framed by listening_start and listening_end
func streamFile(conn *websocket.Conn, path string, chunkSize int) error {
	audio, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read audio file: %w", err)
	}
	if chunkSize <= 0 {
		chunkSize = 1024
	}

	if err := conn.WriteJSON(domain.DeviceMessage{Type: domain.MessageTypeListeningStart}); err != nil {
		return err
	}
	for start := 0; start < len(audio); start += chunkSize {
		end := min(start+chunkSize, len(audio))
		if err := conn.WriteMessage(websocket.BinaryMessage, audio[start:end]); err != nil {
			return fmt.Errorf("send audio chunk: %w", err)
		}
	}
	return conn.WriteJSON(domain.DeviceMessage{Type: domain.MessageTypeListeningEnd})
}

// receive prints replies and saves their audio until the connection closes
func receive(conn *websocket.Conn, out io.Writer, audioDir string, logger *zap.Logger) {
	var (
		audioFile *os.File
		chunks    int
	)
	defer func() {
		if audioFile != nil {
			audioFile.Close()
		}
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Debug("Connection closed", zap.Error(err))
			}
			return
		}

		if messageType == websocket.BinaryMessage {
			chunks++
			if audioFile != nil {
				if _, err := audioFile.Write(message); err != nil {
					logger.Error("Failed to write audio chunk", zap.Error(err))
				}
			}
			continue
		}

		var msg struct {
			Type          string `json:"type"`
			Text          string `json:"text"`
			Prompt        bool   `json:"prompt"`
			Transcription string `json:"transcription"`
			Error         string `json:"error"`
			Message       string `json:"message"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn("Unreadable message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case domain.MessageTypeSessionStarted:
			fmt.Fprintln(out, "-- conversation started, type a command --")
		case domain.MessageTypeSessionEnded:
			fmt.Fprintln(out, "-- conversation ended --")
		case domain.MessageTypeSpeakingStart:
			fmt.Fprintln(out, msg.Text)
			if msg.Prompt {
				fmt.Fprint(out, "> ")
			}
			chunks = 0
			audioFile = openReplyFile(audioDir, logger)
		case domain.MessageTypeSpeakingEnd:
			if audioFile != nil {
				audioFile.Close()
				audioFile = nil
				logger.Debug("Reply audio saved", zap.Int("chunks", chunks))
			}
		case domain.MessageTypeListeningStart, domain.MessageTypeListeningEnd:
			if msg.Error != "" {
				fmt.Fprintf(out, "(%s: %s)\n", msg.Type, msg.Error)
			} else if msg.Transcription != "" {
				fmt.Fprintf(out, "You said: %s\n", msg.Transcription)
			}
		case domain.MessageTypeError:
			fmt.Fprintf(out, "(error: %s)\n", msg.Message)
		default:
			logger.Debug("Unhandled message", zap.String("type", msg.Type))
		}
	}
}

func openReplyFile(dir string, logger *zap.Logger) *os.File {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("Failed to create audio directory", zap.Error(err))
		return nil
	}
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("%d.pcm", time.Now().UnixNano())))
	if err != nil {
		logger.Error("Failed to create audio file", zap.Error(err))
		return nil
	}
	return f
}

// closeGracefully sends a close frame and waits briefly for the server
func closeGracefully(conn *websocket.Conn, done <-chan struct{}) error {
	err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return err
	}
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return nil
}
