package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-storyteller/core/audio"
)

// frameQueueSize bounds how many frames are kept for a slow reader before
// newer frames are dropped.
const frameQueueSize = 64

type captureClient struct {
	device *malgo.Device
	config malgo.DeviceConfig

	frames chan []int16

	mu sync.Mutex
}

func (c *captureClient) Init(audioContext *malgo.AllocatedContext, framesPerBuffer int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if framesPerBuffer <= 0 {
		framesPerBuffer = audio.DefaultFramesPerBuffer
	}

	sampleRate := uint32(audio.DefaultSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Capture)
	c.config.SampleRate = sampleRate
	c.config.Capture.Format = format
	c.config.Capture.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PerformanceProfile = malgo.LowLatency
	c.config.PeriodSizeInFrames = uint32(framesPerBuffer)
	c.config.Periods = 3

	c.frames = make(chan []int16, frameQueueSize)

	var err error
	c.device, err = malgo.InitDevice(audioContext.Context, c.config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			select {
			case c.frames <- audio.Samples(pInput[:n]):
			default:
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return nil
}

func (c *captureClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	c.drain()
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (c *captureClient) ReadFrame(ctx context.Context) ([]int16, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case frame := <-c.frames:
		return frame, nil
	}
}

func (c *captureClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return nil
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}
	return nil
}

// drain discards frames left over from a previous capture.
func (c *captureClient) drain() {
	for {
		select {
		case <-c.frames:
		default:
			return
		}
	}
}

func (c *captureClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	return nil
}
