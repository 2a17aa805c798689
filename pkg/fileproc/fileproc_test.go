package fileproc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/rustscout/pkg/matcher"
	"github.com/praetorian-inc/rustscout/pkg/metrics"
	"github.com/praetorian-inc/rustscout/pkg/types"
)

func todoSet(t *testing.T) *matcher.Set {
	t.Helper()
	m, err := matcher.Compile(types.PatternDefinition{Text: "TODO", BoundaryMode: types.BoundaryWholeWords})
	require.NoError(t, err)
	return matcher.NewSet([]*matcher.Matcher{m})
}

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestScanSmallFindsMatchesAndNumbersLines(t *testing.T) {
	path := writeTemp(t, "small.txt", []byte("one\nTODO fix\nthree\n"))
	p := New(Config{Metrics: metrics.New()})

	result, err := p.ProcessFile(path, todoSet(t))
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	require.Equal(t, 2, result.Matches[0].LineNumber)
	require.False(t, result.WasBinary)
}

func TestScanBufferedHandlesCRLFAndLargerContent(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 3000; i++ {
		b.WriteString("filler line\r\n")
	}
	b.WriteString("TODO crlf\r\n")
	path := writeTemp(t, "buffered.txt", []byte(b.String()))

	p := New(Config{Metrics: metrics.New()})
	result, err := p.ProcessFile(path, todoSet(t))
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	require.Equal(t, 3001, result.Matches[0].LineNumber)
}

func TestScanMmapOnLargeFile(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400000; i++ {
		b.WriteString("padding padding padding padding\n")
	}
	b.WriteString("TODO mmap path\n")
	content := []byte(b.String())
	require.GreaterOrEqual(t, len(content), int(largeThreshold))

	path := writeTemp(t, "large.txt", content)
	p := New(Config{Metrics: metrics.New()})
	result, err := p.ProcessFile(path, todoSet(t))
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
}

func TestProcessFileFailFastReportsByteOffset(t *testing.T) {
	// 0xC3 0x28 is an invalid two-byte sequence (S4).
	content := []byte("ok line\n")
	content = append(content, 0xC3, 0x28, '\n')
	path := writeTemp(t, "bad.txt", content)

	p := New(Config{Encoding: FailFast, Metrics: metrics.New()})
	_, err := p.ProcessFile(path, todoSet(t))
	require.Error(t, err)

	var encErr *types.EncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, int64(len("ok line\n")), encErr.ByteOffset)
}

func TestProcessFileLossyReplacesInvalidBytesAndWarns(t *testing.T) {
	content := []byte("TODO ")
	content = append(content, 0xC3, 0x28)
	content = append(content, '\n')
	path := writeTemp(t, "lossy.txt", content)

	var warned bool
	p := New(Config{Encoding: Lossy, Metrics: metrics.New(), OnWarning: func(string, string) { warned = true }})
	result, err := p.ProcessFile(path, todoSet(t))
	require.NoError(t, err)
	require.True(t, warned)
	require.Len(t, result.Matches, 1)
}

func TestProcessFileMissingFileIsClassified(t *testing.T) {
	p := New(Config{Metrics: metrics.New()})
	_, err := p.ProcessFile(filepath.Join(t.TempDir(), "missing.txt"), todoSet(t))
	require.Error(t, err)

	var fileErr *types.FileError
	require.ErrorAs(t, err, &fileErr)
	require.Equal(t, types.FileNotFound, fileErr.Kind)
}

func TestSplitLinesHandlesTrailingPartialLine(t *testing.T) {
	var got []string
	splitLines([]byte("a\r\nb\nc"), func(_ int, text []byte) {
		got = append(got, string(text))
	})
	require.Equal(t, []string{"a", "b", "c"}, got)
}
