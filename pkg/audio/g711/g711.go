// Package g711 implements the G.711 μ-law companded audio format used by
// telephony media streams: 8-bit logarithmic samples, normally carried at
// 8 kHz mono.
//
// Encoding follows the CCITT G.711 definition with a bias of 132 and a
// clip level of 32635, matching common telephony implementations. Digital
// silence (PCM zero) round-trips to silence.
package g711

const (
	bias = 0x84  // linear bias added before segment search
	clip = 32635 // maximum linear magnitude before companding
)

// decodeTable maps every μ-law byte to its linear 16-bit value.
var decodeTable [256]int16

func init() {
	for i := range decodeTable {
		decodeTable[i] = decode(byte(i))
	}
}

func decode(u byte) int16 {
	u = ^u
	sign := u & 0x80
	exponent := (u >> 4) & 0x07
	mantissa := u & 0x0F
	magnitude := ((int32(mantissa)<<3 + bias) << exponent) - bias
	if sign != 0 {
		return int16(-magnitude)
	}
	return int16(magnitude)
}

// DecodeSample expands one μ-law byte to a linear 16-bit sample.
func DecodeSample(u byte) int16 {
	return decodeTable[u]
}

// EncodeSample compresses one linear 16-bit sample to a μ-law byte.
func EncodeSample(s int16) byte {
	var sign byte
	v := int32(s)
	if v < 0 {
		v = -v
		sign = 0x80
	}
	if v > clip {
		v = clip
	}
	v += bias

	exponent := byte(7)
	for mask := int32(0x4000); mask != 0 && v&mask == 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte(v>>(exponent+3)) & 0x0F
	return ^(sign | exponent<<4 | mantissa)
}

// Decode expands a μ-law frame to linear 16-bit samples.
func Decode(mulaw []byte) []int16 {
	out := make([]int16, len(mulaw))
	for i, u := range mulaw {
		out[i] = decodeTable[u]
	}
	return out
}

// Encode compresses linear 16-bit samples to a μ-law frame.
func Encode(pcm []int16) []byte {
	out := make([]byte, len(pcm))
	for i, s := range pcm {
		out[i] = EncodeSample(s)
	}
	return out
}
