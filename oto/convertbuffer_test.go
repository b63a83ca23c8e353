package oto_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/vsariola/groove"
	"github.com/vsariola/groove/oto"
)

func TestFloatBufferTo16BitLE(t *testing.T) {
	buf := groove.AudioBuffer{0, 0.5, -1, 2, -2}
	got := oto.FloatBufferTo16BitLE(buf, nil)
	want := []int16{0, 16383, -math.MaxInt16, math.MaxInt16, -math.MaxInt16}
	var expected bytes.Buffer
	binary.Write(&expected, binary.LittleEndian, want)
	if !bytes.Equal(got, expected.Bytes()) {
		t.Errorf("expected %v, got %v", expected.Bytes(), got)
	}
}

func TestFloatBufferTo32BitFloatLE(t *testing.T) {
	buf := groove.AudioBuffer{0.25, -3}
	got := oto.FloatBufferTo32BitFloatLE(buf, []byte{7})
	if len(got) != 9 || got[0] != 7 {
		t.Fatalf("expected the samples to be appended, got %v", got)
	}
	for i, v := range buf {
		if f := math.Float32frombits(binary.LittleEndian.Uint32(got[1+4*i:])); f != v {
			t.Errorf("sample %v: expected %v, got %v", i, v, f)
		}
	}
}
