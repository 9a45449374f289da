package auhost

const muLawBias = 0x84

// G.711 companded bytes expand to 16-bit linear samples. Both codecs have
// only 256 code words, so they are expanded once into tables.
var (
	aLawTable  [256]int16
	muLawTable [256]int16
)

func init() {
	for i := range 256 {
		aLawTable[i] = expandALaw(byte(i))
		muLawTable[i] = expandMuLaw(byte(i))
	}
}

func expandMuLaw(code byte) int16 {
	value := ^code
	exponent := (value >> 4) & 0x07
	mantissa := value & 0x0F

	decoded := ((int(mantissa)<<3)+muLawBias)<<exponent - muLawBias
	if value&0x80 != 0 {
		decoded = -decoded
	}

	return int16(decoded)
}

func expandALaw(code byte) int16 {
	value := code ^ 0x55
	exponent := (value >> 4) & 0x07

	decoded := int(value&0x0F) << 4
	switch exponent {
	case 0:
		decoded += 8
	case 1:
		decoded += 0x108
	default:
		decoded = (decoded + 0x108) << (exponent - 1)
	}

	if value&0x80 == 0 {
		decoded = -decoded
	}

	return int16(decoded)
}
