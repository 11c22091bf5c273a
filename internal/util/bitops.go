package util

const (
	IMM12_MIN = -2048
	IMM12_MAX = 2047
)

func Align(addr int, alignment int) int {
	return (addr + alignment - 1) &^ (alignment - 1)
}

// FitsImm12 reports whether val can be encoded as a signed 12-bit immediate
// (the I- and S-type instruction formats).
func FitsImm12(val int) bool {
	return val >= IMM12_MIN && val <= IMM12_MAX
}
