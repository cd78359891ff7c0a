// Package mic captures microphone audio as 16-bit PCM chunks for sources
// that feed a recognition engine themselves.
package mic

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// Config holds the capture settings.
type Config struct {
	SampleRate   uint32
	Channels     uint32
	BufferFrames uint32
}

// DefaultConfig captures mono 16kHz audio, the rate speech engines expect.
func DefaultConfig() Config {
	return Config{SampleRate: 16000, Channels: 1, BufferFrames: 1600}
}

// Capturer implements source.AudioProvider over a malgo capture device.
// It is restartable: each Start opens a fresh device and fresh channels,
// so one Capturer serves every session of an activation.
type Capturer struct {
	cfg Config

	mu       sync.Mutex
	device   *malgo.Device
	malgoCtx *malgo.AllocatedContext
	chunks   chan []byte
	errors   chan error
	stopped  chan struct{}
	running  bool
}

// New creates a capturer with the given settings.
func New(cfg Config) *Capturer {
	return &Capturer{cfg: cfg}
}

// Start opens the default capture device and begins delivering PCM chunks.
func (c *Capturer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture already running")
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("initializing audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = c.cfg.Channels
	deviceConfig.SampleRate = c.cfg.SampleRate
	deviceConfig.PeriodSizeInFrames = c.cfg.BufferFrames

	chunks := make(chan []byte, 16)
	errs := make(chan error, 4)
	stopped := make(chan struct{})

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			// Copy out of the driver buffer before handing off.
			chunk := make([]byte, len(input))
			copy(chunk, input)
			select {
			case chunks <- chunk:
			default:
				select {
				case errs <- fmt.Errorf("capture buffer overflow, dropping frames"):
				default:
				}
			}
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		malgoCtx.Uninit()
		malgoCtx.Free()
		return fmt.Errorf("initializing capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		malgoCtx.Uninit()
		malgoCtx.Free()
		return fmt.Errorf("starting capture device: %w", err)
	}

	c.malgoCtx = malgoCtx
	c.device = device
	c.chunks = chunks
	c.errors = errs
	c.stopped = stopped
	c.running = true

	go func() {
		select {
		case <-ctx.Done():
			c.Stop()
		case <-stopped:
		}
	}()

	return nil
}

// Stop tears down the device and closes the chunk channel. Idempotent.
func (c *Capturer) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false

	close(c.stopped)

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	if c.malgoCtx != nil {
		c.malgoCtx.Uninit()
		c.malgoCtx.Free()
		c.malgoCtx = nil
	}

	close(c.chunks)
	close(c.errors)
	c.mu.Unlock()
	return nil
}

// Chunks yields captured PCM. Closed when capture stops.
func (c *Capturer) Chunks() <-chan []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chunks
}

// Errors yields capture faults such as buffer overflows.
func (c *Capturer) Errors() <-chan error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors
}
