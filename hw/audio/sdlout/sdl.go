// Package sdlout plays audio through an SDL2 audio device queue.
package sdlout

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"nesapu/emu/log"
)

const (
	AudioFormat     = sdl.AUDIO_S16LSB
	AudioChannels   = 1
	AudioBufferSize = 512 // samples per device callback
)

// Sink queues samples to an SDL audio device. Play blocks while the device
// holds more than the configured latency worth of audio.
type Sink struct {
	id        sdl.AudioDeviceID
	spec      sdl.AudioSpec
	maxQueued uint32 // in bytes
}

// Open initializes the SDL audio subsystem and opens the default playback
// device.
func Open(sampleRate int, latency time.Duration) (*Sink, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("sdl audio init: %w", err)
	}

	want := &sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   AudioFormat,
		Channels: AudioChannels,
		Samples:  AudioBufferSize,
	}

	s := &Sink{}
	var err error
	s.id, err = sdl.OpenAudioDevice("", false, want, &s.spec, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return nil, fmt.Errorf("open sdl audio device: %w", err)
	}

	bytesPerSec := int64(sampleRate) * 2
	s.maxQueued = uint32(max(int64(latency)*bytesPerSec/int64(time.Second), 2*AudioBufferSize*2))

	log.ModAudio.InfoZ("sdl audio device opened").
		Int("freq", int(s.spec.Freq)).
		Uint16("samples", s.spec.Samples).
		Uint32("max queued", s.maxQueued).
		End()

	sdl.PauseAudioDevice(s.id, false)
	return s, nil
}

func (s *Sink) Play(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	for sdl.GetQueuedAudioSize(s.id) > s.maxQueued {
		time.Sleep(time.Millisecond)
	}

	// QueueAudio copies the data.
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*2)
	if err := sdl.QueueAudio(s.id, buf); err != nil {
		return fmt.Errorf("sdl queue audio: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	sdl.CloseAudioDevice(s.id)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
	return nil
}
