package stt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText on Google Cloud Speech.
// One gRPC client is shared by every stream.
type GoogleSpeechToText struct {
	client *speech.Client
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText dials the Speech API using application default credentials
func NewGoogleSpeechToText(ctx context.Context, logger *zap.Logger) (*GoogleSpeechToText, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleSpeechToText{client: client, logger: logger}, nil
}

// Close releases the gRPC connection
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}

// InitTranscribeStreaming opens a single-utterance recognition stream
func (g *GoogleSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return nil, err
	}

	stream, err := g.client.StreamingRecognize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create streaming recognize: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        encoding,
					SampleRateHertz: int32(config.SampleRate),
					LanguageCode:    config.Language,
				},
				InterimResults:  false,
				SingleUtterance: true,
			},
		},
	}); err != nil {
		_ = stream.CloseSend()
		return nil, fmt.Errorf("failed to send streaming config: %w", err)
	}

	g.logger.Debug("Speech stream opened",
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding),
		zap.String("language", config.Language))

	s := &googleStream{
		ctx:    ctx,
		stream: stream,
		logger: g.logger,
		done:   make(chan struct{}),
	}
	go s.receive()
	return s, nil
}

// TranscribeAudio sends a complete utterance through a stream
func (g *GoogleSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	stream, err := g.InitTranscribeStreaming(ctx, config)
	if err != nil {
		return "", err
	}
	if err := stream.Stream(audioData); err != nil {
		return "", err
	}
	return stream.End()
}

type googleStream struct {
	ctx    context.Context
	stream speechpb.Speech_StreamingRecognizeClient
	logger *zap.Logger

	mu            sync.Mutex
	audioReceived bool

	done       chan struct{}
	transcript string
	recvErr    error
}

func (s *googleStream) Stream(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	s.mu.Lock()
	s.audioReceived = true
	s.mu.Unlock()

	if err := s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{AudioContent: data},
	}); err != nil {
		return fmt.Errorf("failed to send audio data: %w", err)
	}
	return nil
}

// End closes the send side and waits for the final transcript. Silence and
// unintelligible audio both map to ErrNoSpeech.
func (s *googleStream) End() (string, error) {
	s.mu.Lock()
	received := s.audioReceived
	s.mu.Unlock()

	if err := s.stream.CloseSend(); err != nil {
		return "", fmt.Errorf("failed to close send stream: %w", err)
	}
	if !received {
		return "", repositories.ErrNoSpeech
	}

	select {
	case <-s.ctx.Done():
		return "", fmt.Errorf("context cancelled while waiting for result: %w", s.ctx.Err())
	case <-s.done:
	}

	if s.recvErr != nil {
		return "", s.recvErr
	}
	if strings.TrimSpace(s.transcript) == "" {
		return "", repositories.ErrNoSpeech
	}
	return s.transcript, nil
}

func (s *googleStream) receive() {
	defer close(s.done)

	var parts []string
	for {
		resp, err := s.stream.Recv()
		if err == io.EOF {
			s.transcript = strings.Join(parts, " ")
			return
		}
		if err != nil {
			s.recvErr = fmt.Errorf("failed to receive response: %w", err)
			return
		}
		for _, result := range resp.GetResults() {
			if result.GetIsFinal() && len(result.GetAlternatives()) > 0 {
				parts = append(parts, strings.TrimSpace(result.GetAlternatives()[0].GetTranscript()))
			}
		}
	}
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch strings.ToUpper(encoding) {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported audio encoding: %s", encoding)
	}
}
