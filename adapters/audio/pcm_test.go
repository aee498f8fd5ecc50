package audio

import (
	"bytes"
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDecodeValidatesPayload(t *testing.T) {
	out := NewOutput(nil, zap.NewNop())

	if _, err := out.Decode(nil); err == nil {
		t.Error("expected error for empty payload")
	}
	if _, err := out.Decode([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for odd-length payload")
	}

	clip, err := out.Decode(make([]byte, 4800))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if clip.SampleRate != 24000 || clip.Channels != 1 {
		t.Errorf("unexpected clip format: %d Hz, %d channels", clip.SampleRate, clip.Channels)
	}
	if got, want := clip.Duration(), 100*time.Millisecond; got != want {
		t.Errorf("Duration() = %v, want %v", got, want)
	}
}

func TestPlayStreamsWholeClipToSink(t *testing.T) {
	var sink bytes.Buffer
	out := NewOutput(&sink, zap.NewNop())

	payload := make([]byte, 9600) // 200ms at 24kHz mono
	for i := range payload {
		payload[i] = byte(i)
	}
	clip, err := out.Decode(payload)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	if err := out.Play(context.Background(), clip); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if !bytes.Equal(sink.Bytes(), payload) {
		t.Errorf("sink received %d bytes, want the full %d-byte payload intact", sink.Len(), len(payload))
	}
}

func TestPlayMutedSkipsSink(t *testing.T) {
	var sink bytes.Buffer
	out := NewOutput(&sink, zap.NewNop())
	out.SetMuted(true)

	clip, _ := out.Decode(make([]byte, 4800))
	start := time.Now()
	if err := out.Play(context.Background(), clip); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if sink.Len() != 0 {
		t.Errorf("muted playback wrote %d bytes to sink", sink.Len())
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("muted playback took %v, expected immediate return", elapsed)
	}
}

func TestPlayCancelledContext(t *testing.T) {
	var sink bytes.Buffer
	out := NewOutput(&sink, zap.NewNop())

	// 2s of audio so cancellation lands mid-stream.
	clip, _ := out.Decode(make([]byte, 96000))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := out.Play(ctx, clip)
	if err != context.Canceled {
		t.Errorf("Play returned %v, want context.Canceled", err)
	}
	if sink.Len() == len(clip.PCM) {
		t.Error("expected playback to stop before streaming the whole clip")
	}
}

func TestPlayAfterClose(t *testing.T) {
	out := NewOutput(nil, zap.NewNop())
	if err := out.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	clip, _ := out.Decode(make([]byte, 2))
	if err := out.Play(context.Background(), clip); err == nil {
		t.Error("expected error playing on a closed output")
	}
}
