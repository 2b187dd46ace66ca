package softfloat

// BCDLoad decodes the x86 10-byte packed-BCD memory image (18 digits, two
// per byte in bytes 0-8 with the least significant byte first, and the
// sign in bit 7 of byte 9) into a signed
// int64, the way the teacher's decLoad unpacks a 370 packed-decimal operand
// into a digit array before arithmetic. Digits beyond the 18th are dropped
// silently, matching real x87 FBLD on an operand with more significant
// digits than the mantissa can hold.
func BCDLoad(data [10]byte) int64 {
	var v int64
	for i := 8; i >= 0; i-- {
		b := data[i]
		hi := (b >> 4) & 0xf
		lo := b & 0xf
		v = v*10 + int64(hi)
		v = v*10 + int64(lo)
	}
	sign := data[9]&0x80 != 0
	if sign {
		v = -v
	}
	return v
}

// BCDStore packs v into the 10-byte x86 packed-BCD layout, modulo 10^18:
// digits beyond the 18th silently wrap, mirroring decStore's fixed-width
// digit array with no overflow signal of its own (the caller, FBSTP's
// handler, is responsible for raising invalid-operation on overflow).
func BCDStore(v int64) [10]byte {
	var data [10]byte
	sign := v < 0
	u := uint64(v)
	if sign {
		u = uint64(-v)
	}
	u %= 1_000_000_000_000_000_000
	for i := 0; i < 9; i++ {
		lo := u % 10
		u /= 10
		hi := u % 10
		u /= 10
		data[i] = byte(lo) | byte(hi)<<4
	}
	if sign {
		data[9] = 0x80
	}
	return data
}
