package groove

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV encodes the buffer as a stereo PCM .wav file with the given bit depth
// (16 or 24) into w. The encoder needs to seek back to patch the header
// sizes, so w must be an io.WriteSeeker, e.g. an *os.File.
func WAV(w io.WriteSeeker, buffer AudioBuffer, sampleRate, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("WAV: unsupported bit depth %d", bitDepth)
	}
	enc := wav.NewEncoder(w, sampleRate, bitDepth, 2, 1)
	scale := float64(int(1)<<(bitDepth-1) - 1)
	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           make([]int, len(buffer)),
		SourceBitDepth: bitDepth,
	}
	for i, v := range buffer {
		intBuf.Data[i] = clamp(int(float64(v)*scale), -int(scale)-1, int(scale))
	}
	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("WAV: could not write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("WAV: could not finalize file: %w", err)
	}
	return nil
}

// Raw writes the buffer as headerless little endian data: float32, or
// int16 if pcm16 is set.
func Raw(w io.Writer, buffer AudioBuffer, pcm16 bool) error {
	var err error
	if pcm16 {
		int16data := make([]int16, len(buffer))
		for i, v := range buffer {
			int16data[i] = int16(clamp(int(v*math.MaxInt16), math.MinInt16, math.MaxInt16))
		}
		err = binary.Write(w, binary.LittleEndian, int16data)
	} else {
		err = binary.Write(w, binary.LittleEndian, []float32(buffer))
	}
	if err != nil {
		return fmt.Errorf("Raw: could not write data: %w", err)
	}
	return nil
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
