package crypto

import "runtime"

// Wipe zeroes b in place. Best-effort: it discourages the compiler from
// eliding the writes, nothing stronger. Used on derived shared secrets and
// stretched backup keys once they have served their purpose.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	// Keep b live past the loop so the stores are not dead.
	runtime.KeepAlive(&b)
}
