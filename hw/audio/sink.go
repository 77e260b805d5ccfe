package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// A Sink consumes mono 16-bit samples. Play may block to pace the player.
type Sink interface {
	Play(samples []int16) error
	Close() error
}

// NullSink discards samples, only counting them.
type NullSink struct {
	Samples uint64
}

func (s *NullSink) Play(samples []int16) error {
	s.Samples += uint64(len(samples))
	return nil
}

func (s *NullSink) Close() error { return nil }

// PCM wav format tag.
const wavFormatPCM = 1

// WAVSink encodes samples into a 16-bit mono WAV stream.
type WAVSink struct {
	enc    *wav.Encoder
	buf    *goaudio.IntBuffer
	closer io.Closer // non-nil if the sink owns the output
}

func NewWAVSink(w io.WriteSeeker, sampleRate int) *WAVSink {
	return &WAVSink{
		enc: wav.NewEncoder(w, sampleRate, 16, 1, wavFormatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}
}

// CreateWAV creates (or truncates) the file at path and returns a WAVSink
// writing to it. Closing the sink closes the file.
func CreateWAV(path string, sampleRate int) (*WAVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}
	s := NewWAVSink(f, sampleRate)
	s.closer = f
	return s, nil
}

func (s *WAVSink) Play(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	s.buf.Data = s.buf.Data[:0]
	for _, v := range samples {
		s.buf.Data = append(s.buf.Data, int(v))
	}
	return s.enc.Write(s.buf)
}

// Close finalizes the WAV headers.
func (s *WAVSink) Close() error {
	var err error
	if s.enc.WrittenBytes == 0 {
		// headers only
		s.buf.Data = s.buf.Data[:0]
		err = s.enc.Write(s.buf)
	}
	if cerr := s.enc.Close(); err == nil {
		err = cerr
	}
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}
