package disciplinary

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxCleanNameLength = 30
	randomSuffixLength = 8
	base36Alphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// BlobPath builds the storage path of an uploaded attachment:
// solicitud_<id>/<unixMillis>_<random>_<cleanName>.<ext>
func BlobPath(requestID uuid.UUID, fileName string, at time.Time, random string) string {
	base, ext := splitExtension(fileName)

	var b strings.Builder
	b.WriteString("solicitud_")
	b.WriteString(requestID.String())
	b.WriteByte('/')
	b.WriteString(strconv.FormatInt(at.UnixMilli(), 10))
	b.WriteByte('_')
	b.WriteString(random)
	b.WriteByte('_')
	b.WriteString(cleanName(base, maxCleanNameLength))
	b.WriteByte('.')
	b.WriteString(cleanName(ext, 0))
	return b.String()
}

// RandomSuffix returns n lowercase base-36 characters
func RandomSuffix(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = base36Alphabet[rand.IntN(len(base36Alphabet))]
	}
	return string(buf)
}

// splitExtension separates the last extension. A name without a dot is
// used as its own extension.
func splitExtension(name string) (base, ext string) {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return name, name
	}
	return name[:idx], name[idx+1:]
}

// cleanName replaces every rune outside [A-Za-z0-9] with '_' and keeps at
// most limit runes (0 = no limit)
func cleanName(s string, limit int) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		if limit > 0 && n == limit {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		n++
	}
	return b.String()
}
