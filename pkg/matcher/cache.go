package matcher

import (
	"sync"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

// cacheKey identifies one compiled strategy. Two PatternDefinitions that
// differ only in IsRegex still classify to the same compiled strategy
// when the text contains no regex metacharacters, but we key on IsRegex
// too since a user-forced regex and an auto-escaped literal may compile
// differently for the same raw text.
type cacheKey struct {
	text     string
	boundary types.BoundaryMode
	hyphen   types.HyphenHandling
	isRegex  bool
}

// globalPatternCache is the process-wide concurrent map described in
// §4.2 and §9 ("Global pattern cache"): init-on-first-use, lifetime =
// process. Insertion is idempotent under race — sync.Map.LoadOrStore
// means a goroutine that loses the race simply discards the strategy it
// built and uses the winner's.
var globalPatternCache sync.Map // cacheKey -> strategy

// compiledStrategy returns the cached strategy for key, building it via
// build and storing it on a cache miss.
func compiledStrategy(key cacheKey, build func() (strategy, error)) (strategy, error) {
	if v, ok := globalPatternCache.Load(key); ok {
		return v.(strategy), nil
	}

	built, err := build()
	if err != nil {
		return nil, err
	}

	actual, _ := globalPatternCache.LoadOrStore(key, built)
	return actual.(strategy), nil
}

// resetGlobalPatternCache clears the process-wide cache, so the next
// Compile of any pattern builds its strategy afresh.
func resetGlobalPatternCache() {
	globalPatternCache.Range(func(k, _ any) bool {
		globalPatternCache.Delete(k)
		return true
	})
}
