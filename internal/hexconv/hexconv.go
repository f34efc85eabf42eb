package hexconv

// Halfbyte maps a hex digit to its value. Entries of all other characters
// hold 0xff, so validity of a digit (or a pair of them) is checked as
// value <= 0x0f.
var Halfbyte = newHalfbyteLUT()

func newHalfbyteLUT() (lut [256]byte) {
	for i := range lut {
		lut[i] = 0xff
	}

	for char := byte('0'); char <= '9'; char++ {
		lut[char] = char - '0'
	}

	for char := byte('a'); char <= 'f'; char++ {
		lut[char] = char - 'a' + 0xa
	}

	for char := byte('A'); char <= 'F'; char++ {
		lut[char] = char - 'A' + 0xA
	}

	return lut
}
