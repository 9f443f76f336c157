// Package conv formats integers into caller-supplied buffers.
package conv

const hexd = "0123456789ABCDEF"

// Utoa writes the base-10 representation of n into the tail of buf and
// returns the used slice. buf should be at least 20 bytes.
func Utoa(buf []byte, n uint64) []byte {
	i := len(buf)
	if i == 0 {
		return buf[:0]
	}
	if n == 0 {
		buf[i-1] = '0'
		return buf[i-1:]
	}
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return buf[i:]
}

// U32Hex writes 8 uppercase hex digits, zero-padded, without 0x.
func U32Hex(buf []byte, n uint32) []byte {
	if len(buf) < 8 {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < 8; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return buf[i:]
}

// Addr formats a 32-bit bus address as 0xXXXXXXXX.
func Addr(n uint32) string {
	var buf [10]byte
	buf[0], buf[1] = '0', 'x'
	U32Hex(buf[2:], n)
	return string(buf[:])
}
