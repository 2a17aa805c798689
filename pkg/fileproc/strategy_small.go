package fileproc

import (
	"os"

	"github.com/praetorian-inc/rustscout/pkg/matcher"
	"github.com/praetorian-inc/rustscout/pkg/types"
	"github.com/praetorian-inc/rustscout/pkg/walker"
)

// scanSmall loads the whole file into one buffer, amortizing syscall
// overhead for the common case of many tiny files (< 32 KiB).
func (p *Processor) scanSmall(path string, set *matcher.Set) ([]types.Match, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, classifyOpenError(path, err)
	}
	p.cfg.Metrics.RecordAllocation(int64(len(content)))

	return p.scanBuffer(path, content, set)
}

// scanBuffer is shared by the small and mmap strategies, both of which
// already hold the full content in memory.
func (p *Processor) scanBuffer(path string, content []byte, set *matcher.Set) ([]types.Match, bool, error) {
	sample := content
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if walker.IsBinary(sample) {
		return nil, true, nil
	}

	var out []types.Match
	var firstErr error
	offset := int64(0)
	if hasUTF8BOM(content) {
		content = content[3:]
		offset = 3
	}

	pos := 0 // start of the current line within content
	splitLines(content, func(lineNumber int, raw []byte) {
		if firstErr != nil {
			return
		}
		text, err := p.decodeLine(path, offset+int64(pos), raw)
		if err != nil {
			firstErr = err
			return
		}
		out = append(out, set.ScanLine(lineNumber, text)...)
		if end := pos + len(raw); end < len(content) && content[end] == '\r' {
			pos++ // "\r\n" terminator
		}
		pos += len(raw) + 1
	})
	if firstErr != nil {
		return nil, false, firstErr
	}
	return out, false, nil
}
