package oto

import (
	"encoding/binary"
	"math"

	"github.com/vsariola/groove"
)

// FloatBufferTo16BitLE converts buff to 16-bit little-endian PCM, appending
// to out. Values outside [-1, 1] are clipped.
func FloatBufferTo16BitLE(buff groove.AudioBuffer, out []byte) []byte {
	for _, v := range buff {
		var uv int16
		if v < -1.0 {
			uv = -math.MaxInt16
		} else if v > 1.0 {
			uv = math.MaxInt16
		} else {
			uv = int16(v * math.MaxInt16)
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(uv))
	}
	return out
}

// FloatBufferTo32BitFloatLE converts buff to little-endian float32 samples,
// appending to out.
func FloatBufferTo32BitFloatLE(buff groove.AudioBuffer, out []byte) []byte {
	for _, v := range buff {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}
