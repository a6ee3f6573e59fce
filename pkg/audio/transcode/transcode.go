// Package transcode converts audio frames between the telephony leg and the
// model session leg of a call.
//
// The telephony side carries 8-bit μ-law samples at 8 kHz. The model session
// consumes 16-bit little-endian PCM at 16 kHz and produces it at 24 kHz. Both
// conversions are pure functions over a single frame with no cross-frame
// state, so frame boundaries may fall anywhere without affecting correctness.
//
// Resampling uses linear interpolation over samples normalized to
// [-1.0, 1.0], mapping n input samples to round(n*ratio) output samples. An
// empty frame converts to an empty frame.
package transcode

import (
	"math"

	"github.com/voicebridge/dispatch/pkg/audio/g711"
)

// Sample rates of the three audio legs.
const (
	TelephonyRate = 8000  // μ-law in and out
	ModelInRate   = 16000 // PCM into the model session
	ModelOutRate  = 24000 // PCM out of the model session
)

// TelephonyToModel converts one frame of 8 kHz μ-law telephony audio into
// 16-bit PCM at 16 kHz for the model session.
func TelephonyToModel(frame []byte) []byte {
	if len(frame) == 0 {
		return nil
	}
	samples := normalize(g711.Decode(frame))
	samples = resample(samples, float64(ModelInRate)/float64(TelephonyRate))
	return packPCM16(samples)
}

// ModelToTelephony converts one frame of 24 kHz 16-bit PCM produced by the
// model session into 8 kHz μ-law telephony audio. Frames with an odd byte
// count have the trailing byte ignored.
func ModelToTelephony(frame []byte) []byte {
	if len(frame) < 2 {
		return nil
	}
	samples := normalizePCM16(frame)
	samples = resample(samples, float64(TelephonyRate)/float64(ModelOutRate))
	return g711.Encode(denormalize(samples))
}

// resample maps n input samples to round(n*ratio) output samples by linear
// interpolation, with the first and last input samples anchored to the first
// and last output samples.
func resample(in []float64, ratio float64) []float64 {
	if len(in) == 0 {
		return nil
	}
	n := int(math.Round(float64(len(in)) * ratio))
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	if len(in) == 1 || n == 1 {
		for i := range out {
			out[i] = in[0]
		}
		return out
	}
	step := float64(len(in)-1) / float64(n-1)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}

func normalize(pcm []int16) []float64 {
	out := make([]float64, len(pcm))
	for i, s := range pcm {
		out[i] = float64(s) / 32768.0
	}
	return out
}

func normalizePCM16(b []byte) []float64 {
	n := len(b) / 2
	out := make([]float64, n)
	for i := range n {
		s := int16(b[i*2]) | int16(b[i*2+1])<<8
		out[i] = float64(s) / 32768.0
	}
	return out
}

func denormalize(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = clampPCM16(s)
	}
	return out
}

func packPCM16(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := clampPCM16(s)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

func clampPCM16(s float64) int16 {
	if s > 1.0 {
		return 32767
	}
	if s < -1.0 {
		return -32768
	}
	return int16(s * 32767.0)
}
