package fileproc

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/praetorian-inc/rustscout/pkg/matcher"
	"github.com/praetorian-inc/rustscout/pkg/types"
)

// scanMmap memory-maps a large file (>= 10 MiB) read-only rather than
// copying it into the heap, then scans it the same way scanSmall scans
// an in-memory buffer.
func (p *Processor) scanMmap(path string, set *matcher.Set) ([]types.Match, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, classifyOpenError(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, false, classifyOpenError(path, err)
	}
	if info.Size() == 0 {
		return nil, false, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, false, classifyOpenError(path, err)
	}
	defer m.Unmap()

	content := []byte(m)
	p.cfg.Metrics.RecordMmap(int64(len(content)))

	return p.scanBuffer(path, content, set)
}
