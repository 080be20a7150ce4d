// Package miniaudio captures and plays audio through miniaudio (malgo).
package miniaudio

import (
	"context"
	"errors"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-storyteller/core/audio"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient
}

func NewClient(framesPerBuffer int) (*Client, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		return nil, fmt.Errorf("malgo InitContext failed: %w", err)
	}

	client := Client{audioContext: audioCtx}

	if err := client.playbackClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := client.captureClient.Init(audioCtx, framesPerBuffer); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

func (c *Client) StartCapture(context.Context) error {
	return c.captureClient.Start()
}

func (c *Client) ReadFrame(ctx context.Context) ([]int16, error) {
	return c.captureClient.ReadFrame(ctx)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

// Play queues linear16 audio and blocks until it has been played or ctx is
// done, in which case whatever is still queued is dropped.
func (c *Client) Play(ctx context.Context, linear16 []byte) error {
	return c.playbackClient.Play(ctx, linear16)
}

func (c *Client) Close() error {
	err := errors.Join(c.captureClient.Uninit(), c.playbackClient.Uninit())
	if c.audioContext != nil {
		err = errors.Join(err, c.audioContext.Uninit())
		c.audioContext.Free()
		c.audioContext = nil
	}
	return err
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
