package entities

import "time"

// AudioClip is a decoded, playable audio buffer. Clips are produced by the
// audio output adapter from the raw synthesis payload and are never
// modified after creation.
type AudioClip struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Duration returns the playback length of the clip, assuming 16-bit
// samples.
func (c *AudioClip) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	frames := len(c.PCM) / 2 / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}
