//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// WaitGroupGo flags the manual Add/Done choreography that wg.Go()
// replaced. Pairing Add with a deferred Done by hand is where the
// classic off-by-one hangs come from.
//
// Old:
//
//	wg.Add(1)
//	go func() {
//	    defer wg.Done()
//	    work()
//	}()
//
// New (Go 1.25+):
//
//	wg.Go(work)
func WaitGroupGo(m dsl.Matcher) {
	m.Match(`go func() { defer $wg.Done(); $*_ }()`).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("use $wg.Go(func() { ... }) instead of pairing Add with a deferred Done (Go 1.25+)").
		Suggest(`$wg.Go(func() { $*_ })`)

	// Done at the end without defer is worse, a panic in the body
	// leaks the count.
	m.Match(`go func() { $*_; $wg.Done() }()`).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("use $wg.Go(func() { ... }); an undeferred Done leaks the count on panic (Go 1.25+)")
}
