package recording

import (
	"encoding/binary"
	"io"
)

// WAV container constants for telephone audio: G.711 μ-law, 8 kHz mono,
// 8 bits per sample.
const (
	wavFormatMulaw = 7
	wavSampleRate  = 8000
)

// writeWAV writes a complete WAV file holding the given μ-law samples.
// Non-PCM WAV requires an extended fmt chunk and a fact chunk carrying the
// sample count.
func writeWAV(w io.Writer, mulaw []byte) error {
	n := uint32(len(mulaw))
	// "WAVE" + fmt(8+18) + fact(8+4) + data(8+n)
	riffSize := 4 + 26 + 12 + 8 + n

	var hdr [50]byte
	copy(hdr[0:], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:], riffSize)
	copy(hdr[8:], "WAVE")

	copy(hdr[12:], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:], 18) // chunk size, with cbSize field
	binary.LittleEndian.PutUint16(hdr[20:], wavFormatMulaw)
	binary.LittleEndian.PutUint16(hdr[22:], 1) // mono
	binary.LittleEndian.PutUint32(hdr[24:], wavSampleRate)
	binary.LittleEndian.PutUint32(hdr[28:], wavSampleRate) // byte rate
	binary.LittleEndian.PutUint16(hdr[32:], 1)             // block align
	binary.LittleEndian.PutUint16(hdr[34:], 8)             // bits per sample
	binary.LittleEndian.PutUint16(hdr[36:], 0)             // cbSize

	copy(hdr[38:], "fact")
	binary.LittleEndian.PutUint32(hdr[42:], 4)
	binary.LittleEndian.PutUint32(hdr[46:], n) // sample count

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	var data [8]byte
	copy(data[0:], "data")
	binary.LittleEndian.PutUint32(data[4:], n)
	if _, err := w.Write(data[:]); err != nil {
		return err
	}
	_, err := w.Write(mulaw)
	return err
}
