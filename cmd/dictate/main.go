// Command dictate runs turn detection against the local recognizer and a
// microphone, printing the live transcript and the finalized turn to the
// terminal. Useful for trying cue sets and timer thresholds without the
// full service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"dictation-turn-service/internal/models"
	"dictation-turn-service/internal/observability/logging"
	"dictation-turn-service/internal/service/session"
	"dictation-turn-service/internal/service/source"
	"dictation-turn-service/internal/service/source/local"
	"dictation-turn-service/internal/service/source/mic"
	"dictation-turn-service/internal/service/turn"
)

func main() {
	modelPath := flag.String("model", "model", "path to the recognizer model directory")
	sampleRate := flag.Int("rate", 16000, "capture sample rate in Hz")
	silence := flag.Duration("silence", 3*time.Second, "silence threshold before the turn is cut off")
	timeout := flag.Duration("timeout", 2*time.Second, "confirmation window after a complete-looking utterance")
	cuesFile := flag.String("cues", "", "optional YAML file with custom completeness cues")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	logging.Init(logging.Config{
		Level:      *logLevel,
		Format:     "console",
		TimeFormat: time.RFC3339,
	})

	cues := turn.DefaultEnglishCues()
	if *cuesFile != "" {
		loaded, err := turn.LoadCues(*cuesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading cues: %v\n", err)
			os.Exit(1)
		}
		cues = loaded
	}

	engine, err := local.NewEngine(*modelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading model: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	mcfg := mic.DefaultConfig()
	mcfg.SampleRate = uint32(*sampleRate)
	mcfg.BufferFrames = uint32(*sampleRate / 10)
	src := local.New(engine, mic.New(mcfg))
	defer src.Close()

	det := turn.NewDetector(turn.Config{
		SilenceThreshold: *silence,
		TurnTimeout:      *timeout,
	}, turn.NewAnalyzer(cues))

	ctrl := session.NewController(session.Config{
		Provider: "local",
		Source: source.Config{
			Language:       "en-US",
			Continuous:     true,
			InterimResults: true,
			SampleRateHz:   *sampleRate,
		},
	}, src, det)

	det.SetOnUpdate(func(res models.TurnResult) {
		marker := " "
		if res.IsComplete {
			marker = "*"
		}
		fmt.Printf("\r\033[K%s %s", marker, res.FinalText)
	})

	done := make(chan struct{})
	var finish sync.Once
	ctrl.SetOnFinal(func(res models.TurnResult, meta session.TurnMeta) {
		fmt.Printf("\r\033[K\n--- turn finalized (%s, %.1fs) ---\n%s\n",
			meta.StopReason, meta.Duration.Seconds(), res.FinalText)
		finish.Do(func() { close(done) })
	})
	ctrl.SetOnStatus(func(st models.RecordingStatus) {
		if !st.IsRecording && st.Error != "" {
			fmt.Fprintf(os.Stderr, "\nrecording failed: %s\n", st.Error)
			finish.Do(func() { close(done) })
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ctrl.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "starting recording: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("listening, speak now (Ctrl-C to stop)")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		ctrl.Stop()
		<-done
	case <-done:
	}
}
