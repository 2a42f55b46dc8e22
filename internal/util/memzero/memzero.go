// Package memzero wipes sensitive buffers (session keys, passphrase-derived
// keys, decrypted keystore blobs) once they are no longer needed.
package memzero

import "crypto/subtle"

// Zero overwrites every given buffer with zeros. The copy goes through
// crypto/subtle so the compiler does not drop it as a dead store.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
	}
}
