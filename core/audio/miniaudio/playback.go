package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-storyteller/core/audio"
)

type playbackClient struct {
	device *malgo.Device
	config malgo.DeviceConfig

	pending []byte
	marks   []playbackMark

	mu      sync.Mutex
	audioMu sync.Mutex
}

type playbackMark struct {
	position int
	reached  chan struct{}
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(audio.DefaultSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	c.config.Periods = 4

	var err error
	if c.device, err = malgo.InitDevice(
		audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	); err != nil {
		return err
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) Play(ctx context.Context, linear16 []byte) error {
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return fmt.Errorf("device not started")
	}

	c.audioMu.Lock()
	c.pending = append(c.pending, linear16...)
	mark := playbackMark{position: len(c.pending), reached: make(chan struct{})}
	c.marks = append(c.marks, mark)
	c.audioMu.Unlock()

	select {
	case <-mark.reached:
		return nil
	case <-ctx.Done():
		c.ClearBuffer()
		return ctx.Err()
	}
}

// ClearBuffer drops queued audio and releases everyone waiting on it.
func (c *playbackClient) ClearBuffer() {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.pending = nil
	for _, mark := range c.marks {
		close(mark.reached)
	}
	c.marks = nil
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return nil
	}

	c.device.Uninit()
	c.device = nil
	c.ClearBuffer()

	return nil
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.audioMu.Lock()
		defer c.audioMu.Unlock()

		played := copy(pOutput[:min(need, len(pOutput))], c.pending)
		c.pending = c.pending[played:]
		if len(c.pending) == 0 {
			c.pending = nil
		}

		passed := 0
		for i := range c.marks {
			c.marks[i].position -= played
			if c.marks[i].position <= 0 {
				close(c.marks[i].reached)
				passed++
			}
		}
		c.marks = c.marks[passed:]
	}
}
