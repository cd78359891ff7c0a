// Package google provides a streaming transcription source backed by
// Google Cloud Speech-to-Text.
package google

import (
	"context"
	"errors"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dictation-turn-service/internal/observability/logging"
	"dictation-turn-service/internal/service/source"
)

// Source implements source.Source over a Google streaming recognize
// session fed by an audio provider. One Start opens one gRPC stream; the
// stream is never resumed, the caller starts a fresh session.
type Source struct {
	client *speech.Client
	audio  source.AudioProvider
	log    zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a Google source. Requires GOOGLE_APPLICATION_CREDENTIALS to
// be set in the environment.
func New(ctx context.Context, audio source.AudioProvider) (*Source, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Source{
		client: client,
		audio:  audio,
		log:    logging.WithComponent("google-source"),
	}, nil
}

// Start opens a streaming recognition session, sends the recognition
// config, and launches the audio pump and response listener.
func (s *Source) Start(ctx context.Context, cfg source.Config, ev source.Events) error {
	// A superseded session must release the audio provider before the
	// new one claims it.
	_ = s.Stop()

	runCtx, cancel := context.WithCancel(ctx)

	stream, err := s.client.StreamingRecognize(runCtx)
	if err != nil {
		cancel()
		return source.NewError(source.ErrNetwork, err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: int32(cfg.SampleRateHz),
					LanguageCode:    cfg.Language,
					MaxAlternatives: int32(cfg.MaxAlternatives),
				},
				InterimResults:  cfg.InterimResults,
				SingleUtterance: !cfg.Continuous,
			},
		},
	}); err != nil {
		cancel()
		return classify(err)
	}

	if err := s.audio.Start(runCtx); err != nil {
		cancel()
		return source.NewError(source.ErrAudioCapture, err)
	}

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go s.pump(runCtx, stream)
	go s.listen(stream, ev, cancel)

	return nil
}

// Stop tears down the current session. The listener delivers the trailing
// session-end event once the stream closes.
func (s *Source) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	err := s.audio.Stop()
	if cancel != nil {
		cancel()
	}
	return err
}

// Close releases the underlying gRPC client.
func (s *Source) Close() error {
	return s.client.Close()
}

// pump forwards captured audio chunks into the stream until capture stops
// or the session context is cancelled.
func (s *Source) pump(ctx context.Context, stream speechpb.Speech_StreamingRecognizeClient) {
	defer func() {
		if err := stream.CloseSend(); err != nil {
			s.log.Debug().Err(err).Msg("closing send side of stream")
		}
	}()

	// Bind this session's channels now: the provider hands out fresh
	// ones on its next Start.
	chunks := s.audio.Chunks()
	errs := s.audio.Errors()

	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			req := &speechpb.StreamingRecognizeRequest{
				StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
					AudioContent: chunk,
				},
			}
			if err := stream.Send(req); err != nil {
				// The listener observes the same failure on Recv and
				// reports it; the pump just stops feeding.
				return
			}
		case err, ok := <-errs:
			if ok && err != nil {
				s.log.Warn().Err(err).Msg("audio capture fault")
			}
		}
	}
}

// listen receives recognition responses and translates them into source
// events until the stream ends.
func (s *Source) listen(stream speechpb.Speech_StreamingRecognizeClient, ev source.Events, cancel context.CancelFunc) {
	defer ev.EmitSessionEnd()
	defer cancel()

	// Delivered from this goroutine, never from inside Start: the
	// caller's handlers may need locks it holds across Start.
	ev.EmitSessionStart()

	sawResults := false

	for {
		resp, err := stream.Recv()
		if err != nil {
			if isStreamEnd(err) {
				if !sawResults {
					ev.EmitError(source.NewError(source.ErrNoSpeech, err))
				}
				return
			}
			ev.EmitError(classify(err))
			return
		}

		if resp.Error != nil {
			ev.EmitError(source.NewError(source.ErrAborted, errors.New(resp.Error.GetMessage())))
			return
		}

		hyps := make([]source.Hypothesis, 0, len(resp.Results))
		for _, r := range resp.Results {
			if len(r.Alternatives) == 0 {
				continue
			}
			alt := r.Alternatives[0]
			hyps = append(hyps, source.Hypothesis{
				Text:       alt.Transcript,
				Confidence: float64(alt.Confidence),
				IsFinal:    r.IsFinal,
			})
		}
		if len(hyps) > 0 {
			sawResults = true
			ev.EmitResult(hyps)
		}
	}
}

// isStreamEnd reports whether err is a normal end of the stream rather
// than a failure.
func isStreamEnd(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	switch status.Code(err) {
	case codes.OutOfRange, codes.DeadlineExceeded, codes.Canceled:
		return true
	}
	return false
}

// classify maps a gRPC failure onto the source error taxonomy.
func classify(err error) *source.Error {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return source.NewError(source.ErrNotAllowed, err)
	case codes.InvalidArgument:
		return source.NewError(source.ErrLanguageNotSupported, err)
	case codes.FailedPrecondition:
		return source.NewError(source.ErrServiceNotAllowed, err)
	case codes.Unavailable, codes.Internal:
		return source.NewError(source.ErrNetwork, err)
	case codes.Aborted:
		return source.NewError(source.ErrAborted, err)
	default:
		return source.NewError(source.ErrNetwork, err)
	}
}
