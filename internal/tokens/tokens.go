// Package tokens generates the short identifiers used for file and batch
// links. Tokens carry no structure; uniqueness is enforced at insertion time
// by the store, which regenerates on collision.
package tokens

import (
	"crypto/rand"
	"strings"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const (
	FileIDLength  = 6
	BatchIDLength = 8
)

// BatchPrefix marks a deep-link payload as a batch reference.
const BatchPrefix = "batch_"

func Generate(length int) string {
	buf := make([]byte, length)
	rand.Read(buf)
	var b strings.Builder
	b.Grow(length)
	for _, c := range buf {
		b.WriteByte(alphabet[int(c)%len(alphabet)])
	}
	return b.String()
}

func NewFileID() string {
	return Generate(FileIDLength)
}

func NewBatchID() string {
	return Generate(BatchIDLength)
}

// BatchToken builds the deep-link payload for a batch id.
func BatchToken(batchID string) string {
	return BatchPrefix + batchID
}

// ParseBatchToken strips the batch prefix, reporting whether token was a
// batch reference at all.
func ParseBatchToken(token string) (string, bool) {
	if strings.HasPrefix(token, BatchPrefix) {
		return strings.TrimPrefix(token, BatchPrefix), true
	}
	return "", false
}
