// Package portaudio captures microphone audio through PortAudio.
package portaudio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-storyteller/core/audio"
)

// Client reads fixed size mono linear16 frames from the default input device.
type Client struct {
	framesPerBuffer int
	stream          *portaudio.Stream
	in              []int16

	mu        sync.Mutex
	capturing bool
}

func NewClient(framesPerBuffer int) (*Client, error) {
	if framesPerBuffer <= 0 {
		framesPerBuffer = audio.DefaultFramesPerBuffer
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	in := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, framesPerBuffer, in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open PortAudio stream: %w", err)
	}

	return &Client{
		framesPerBuffer: framesPerBuffer,
		stream:          stream,
		in:              in,
	}, nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}

func (c *Client) StartCapture(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capturing {
		return nil
	}
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start PortAudio stream: %w", err)
	}
	c.capturing = true
	return nil
}

// ReadFrame blocks until the next frame is available.
func (c *Client) ReadFrame(ctx context.Context) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.capturing {
		return nil, fmt.Errorf("capture not started")
	}

	// Overflows only mean we were late reading; the frame is still usable.
	if err := c.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, fmt.Errorf("failed to read from PortAudio stream: %w", err)
	}

	return slices.Clone(c.in), nil
}

func (c *Client) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.capturing {
		return nil
	}
	c.capturing = false
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop PortAudio stream: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return errors.Join(c.StopCapture(), c.stream.Close(), portaudio.Terminate())
}
