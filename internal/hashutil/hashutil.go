// Package hashutil computes the content-addressed hash spec.md §4.7/§6.4
// uses to derive stable output filenames.
package hashutil

import (
	"encoding/hex"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ContentHash hashes the ordered concatenation of parts (server
// declarations, the client body text, and child-init specs) and returns
// its hex digest truncated to 16 characters, matching the length other
// hashed-filename compilers in the pack's build tooling use.
func ContentHash(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p)
		b.WriteByte(0) // separator, so ("ab","c") and ("a","bc") never collide
	}
	sum := xxhash.Sum64String(b.String())
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (56 - 8*i))
	}
	return hex.EncodeToString(buf)[:16]
}
