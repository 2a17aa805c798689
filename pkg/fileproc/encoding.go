package fileproc

import (
	"strings"
	"unicode/utf8"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

// decodeLine applies the configured EncodingMode to one line's raw bytes,
// returning the text to scan. Under FailFast, an invalid sequence returns
// an *types.EncodingError carrying the byte offset (relative to the start
// of the file, via baseOffset) of the first bad byte.
func (p *Processor) decodeLine(path string, baseOffset int64, raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}

	if p.cfg.Encoding == FailFast {
		offset := baseOffset + int64(firstInvalidByte(raw))
		return "", &types.EncodingError{Path: path, ByteOffset: offset}
	}

	p.cfg.OnWarning(path, "invalid UTF-8 replaced with U+FFFD")
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), nil
}

// firstInvalidByte returns the offset of the first byte that does not
// begin a valid UTF-8 sequence.
func firstInvalidByte(raw []byte) int {
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(raw)
}
