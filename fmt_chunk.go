package auhost

import "encoding/binary"

const (
	wavFormatPCM        = 1
	wavFormatIEEEFloat  = 3
	wavFormatALaw       = 6
	wavFormatMuLaw      = 7
	wavFormatExtensible = 0xFFFE

	fmtChunkBaseSize      = 16
	fmtExtensibleDataSize = 22
)

// ksDataFormatSubtype GUID tail shared by all KSDATAFORMAT_SUBTYPE_* values.
var subFormatGUIDTail = [12]byte{0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// FmtChunk is the parsed WAV fmt chunk.
type FmtChunk struct {
	FormatTag      uint16
	NumChannels    uint16
	SampleRate     uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16
	Extensible     *FmtExtensible
}

// FmtExtensible holds the WAVE_FORMAT_EXTENSIBLE fields.
type FmtExtensible struct {
	ValidBitsPerSample uint16
	ChannelMask        uint32
	SubFormat          [16]byte
}

// EffectiveFormatTag resolves an extensible chunk to the format tag carried
// in its sub format GUID.
func (f *FmtChunk) EffectiveFormatTag() uint16 {
	if f == nil {
		return 0
	}

	if f.FormatTag == wavFormatExtensible && f.Extensible != nil {
		return binary.LittleEndian.Uint16(f.Extensible.SubFormat[:2])
	}

	return f.FormatTag
}

func makeSubFormatGUID(formatTag uint16) [16]byte {
	var guid [16]byte

	binary.LittleEndian.PutUint32(guid[:4], uint32(formatTag))
	copy(guid[4:], subFormatGUIDTail[:])

	return guid
}

// defaultChannelMask returns the speaker mask for the first n channels in
// WAVEFORMATEXTENSIBLE speaker order.
func defaultChannelMask(n int) uint32 {
	if n <= 0 || n >= 32 {
		return 0
	}

	return 1<<uint(n) - 1
}
