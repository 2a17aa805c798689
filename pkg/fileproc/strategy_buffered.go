package fileproc

import (
	"bufio"
	"io"
	"os"

	"github.com/praetorian-inc/rustscout/pkg/matcher"
	"github.com/praetorian-inc/rustscout/pkg/types"
	"github.com/praetorian-inc/rustscout/pkg/walker"
)

const bufferedChunkSize = 64 * 1024

// scanBuffered streams a medium-sized file (32 KiB - 10 MiB) through a
// bufio.Reader, copying each line into one reused growable lineBuffer
// before decoding. ReadBytes still returns a newly allocated slice for
// every line.
func (p *Processor) scanBuffered(path string, set *matcher.Set) ([]types.Match, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, classifyOpenError(path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, bufferedChunkSize)

	head, err := r.Peek(binarySampleSize(r))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, false, classifyOpenError(path, err)
	}
	if walker.IsBinary(head) {
		return nil, true, nil
	}

	var (
		out        []types.Match
		lb         lineBuffer
		lineNumber = 1
		offset     int64
		bomStripped bool
	)

	for {
		chunk, readErr := r.ReadBytes('\n')
		if len(chunk) > 0 {
			if !bomStripped {
				bomStripped = true
				if hasUTF8BOM(chunk) {
					chunk = chunk[3:]
					offset += 3
				}
			}

			term := len(chunk)
			hadNewline := term > 0 && chunk[term-1] == '\n'
			if hadNewline {
				term--
				if term > 0 && chunk[term-1] == '\r' {
					term--
				}
			}

			lb.reset()
			lb.write(chunk[:term])

			text, decErr := p.decodeLine(path, offset, lb.bytes())
			if decErr != nil {
				return nil, false, decErr
			}
			out = append(out, set.ScanLine(lineNumber, text)...)

			offset += int64(len(chunk))
			lineNumber++
		}

		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return nil, false, classifyOpenError(path, readErr)
		}
	}

	return out, false, nil
}

// binarySampleSize bounds the binary-sniffing peek to what the reader's
// buffer can actually hold.
func binarySampleSize(r *bufio.Reader) int {
	if r.Size() < 1024 {
		return r.Size()
	}
	return 1024
}
