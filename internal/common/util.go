package common

// WipeByteArray zeroes b in place. Used to scrub passwords from memory once
// they are no longer needed. Safe to call with nil.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
