// Package shared holds small helpers used by several client packages.
package shared

// WipeByteArray overwrites b with zeros. Passwords are read into byte slices
// so they can be cleared once sent.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
