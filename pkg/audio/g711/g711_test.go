package g711

import "testing"

func TestSilenceRoundTrip(t *testing.T) {
	if got := EncodeSample(0); got != 0xFF {
		t.Errorf("EncodeSample(0) = %#x; want 0xff", got)
	}
	if got := DecodeSample(0xFF); got != 0 {
		t.Errorf("DecodeSample(0xff) = %d; want 0", got)
	}
}

func TestKnownValues(t *testing.T) {
	tests := []struct {
		u   byte
		pcm int16
	}{
		{0xFF, 0},      // positive zero
		{0x80, 32124},  // maximum positive
		{0x00, -32124}, // maximum negative
	}
	for _, tc := range tests {
		if got := DecodeSample(tc.u); got != tc.pcm {
			t.Errorf("DecodeSample(%#x) = %d; want %d", tc.u, got, tc.pcm)
		}
		if got := EncodeSample(tc.pcm); got != tc.u {
			t.Errorf("EncodeSample(%d) = %#x; want %#x", tc.pcm, got, tc.u)
		}
	}
}

func TestEncodeDecodeMonotonic(t *testing.T) {
	// Companding is lossy, but decode(encode(x)) must stay within the
	// quantization step of the segment and preserve sign.
	for _, v := range []int16{-32000, -12345, -1000, -132, -1, 0, 1, 132, 1000, 12345, 32000} {
		got := DecodeSample(EncodeSample(v))
		diff := int32(got) - int32(v)
		if diff < 0 {
			diff = -diff
		}
		if diff > 1024 {
			t.Errorf("round trip of %d drifted to %d", v, got)
		}
		if v > 0 && got < 0 || v < -4 && got > 0 {
			t.Errorf("round trip of %d flipped sign: %d", v, got)
		}
	}
}

func TestClipping(t *testing.T) {
	// Values beyond the clip level compand to the maximum code.
	if got := EncodeSample(32767); got != 0x80 {
		t.Errorf("EncodeSample(32767) = %#x; want 0x80", got)
	}
	if got := EncodeSample(-32768); got != 0x00 {
		t.Errorf("EncodeSample(-32768) = %#x; want 0x00", got)
	}
}

func TestFrameHelpers(t *testing.T) {
	pcm := []int16{0, 1000, -1000, 32124}
	frame := Encode(pcm)
	if len(frame) != len(pcm) {
		t.Fatalf("Encode returned %d bytes; want %d", len(frame), len(pcm))
	}
	back := Decode(frame)
	if len(back) != len(pcm) {
		t.Fatalf("Decode returned %d samples; want %d", len(back), len(pcm))
	}
	if back[0] != 0 || back[3] != 32124 {
		t.Errorf("Decode(Encode(pcm)) = %v", back)
	}
	if got := Decode(nil); len(got) != 0 {
		t.Errorf("Decode(nil) = %v; want empty", got)
	}
}
