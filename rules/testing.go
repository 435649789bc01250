//go:build ruleguard

// Package gorules holds the custom ruleguard lints wired in through
// golangci-lint. They nudge the tree toward the modern testing and
// concurrency idioms newer packages already use; violations are
// advisory, not build failures.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// BenchmarkLoop flags benchmarks that still iterate by counting to b.N
// themselves. b.Loop() keeps setup and teardown out of the measured
// region and the compiler cannot fold the loop body away.
//
// See: https://pkg.go.dev/testing#B.Loop
func BenchmarkLoop(m dsl.Matcher) {
	// The index variable may be used in the body, so no auto-fix here.
	m.Match(`for $i := 0; $i < $b.N; $i++ { $*body }`).
		Where(m["b"].Type.Is("*testing.B")).
		Report("iterate with $b.Loop() instead of counting to $b.N (Go 1.24+); declare the index separately if the body needs it")

	m.Match(`for $i := range $b.N { $*body }`).
		Where(m["b"].Type.Is("*testing.B")).
		Report("iterate with $b.Loop() instead of ranging over $b.N (Go 1.24+); declare the index separately if the body needs it")

	m.Match(`for range $b.N { $*body }`).
		Where(m["b"].Type.Is("*testing.B")).
		Report("iterate with $b.Loop() instead of ranging over $b.N (Go 1.24+)").
		Suggest(`for $b.Loop() { $body }`)
}

// TestingContext flags fresh background contexts inside test files.
// t.Context() is canceled when the test ends, so goroutines started
// under it cannot leak past their test.
//
// See: https://pkg.go.dev/testing#T.Context
func TestingContext(m dsl.Matcher) {
	m.Match(`context.Background()`, `context.TODO()`).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("prefer t.Context() in tests so the context ends with the test (Go 1.24+)")
}
