// Package ids implements the two identifier schemes used by the publishing
// backend: opaque post ids for the approval queue and sequential per-account
// ids for tweet drafts.
package ids

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// tokenLen is the length of the random base36 suffix on opaque post ids.
const tokenLen = 9

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewPostID returns an opaque queue item id of the form
// post-<epochMillis>-<token>, where token is a random base36 string. The
// random suffix makes ids practically collision-free even when multiple
// posts are created within the same millisecond.
func NewPostID(now time.Time) string {
	return fmt.Sprintf("post-%d-%s", now.UnixMilli(), randomToken(tokenLen))
}

// randomToken returns n random base36 characters from crypto/rand.
func randomToken(n int) string {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// fall back to a time-derived character rather than panicking.
			b.WriteByte(base36[time.Now().UnixNano()%int64(len(base36))])
			continue
		}
		b.WriteByte(base36[v.Int64()])
	}
	return b.String()
}

// NextSequential returns the next id in a per-namespace sequence:
// <prefix>-<n> where n is one greater than the highest numeric suffix among
// the existing ids carrying that prefix (1 when none exist). Gaps left by
// deletions or manual edits are never reused: existing {A-1, A-3} yields A-4.
// Ids with a non-numeric suffix or a different prefix are ignored.
func NextSequential(prefix string, existing []string) string {
	max := 0
	for _, id := range existing {
		rest, ok := strings.CutPrefix(id, prefix+"-")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s-%d", prefix, max+1)
}
