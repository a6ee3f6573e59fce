// Package audio is an umbrella for the audio format sub-packages:
//
//   - g711: G.711 μ-law encoding and decoding, the telephone line format
//   - transcode: rate and format conversion between the telephone line
//     (μ-law, 8 kHz) and the speech model (PCM, 16/24 kHz)
package audio
