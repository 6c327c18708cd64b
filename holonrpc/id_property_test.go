package holonrpc

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestInvokeIDsAreMonotonicAndUnique checks that the id counter backing
// Invoke never repeats across any number of allocations in the tested
// range — the pending-table lookup in handleResponseEnvelope silently
// misroutes a reply if two in-flight calls ever share one.
func TestInvokeIDsAreMonotonicAndUnique(t *testing.T) {
	t.Parallel()

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 20
	props := gopter.NewProperties(params)

	props.Property("n sequential id allocations produce n distinct, increasing ids", prop.ForAll(
		func(n int) bool {
			c := NewClient(DefaultConfig(), nil)
			seen := make(map[string]bool, n)
			var last uint64
			for i := 0; i < n; i++ {
				c.mu.Lock()
				c.nextID++
				id := fmt.Sprintf("c%d", c.nextID)
				current := c.nextID
				c.mu.Unlock()

				if seen[id] {
					return false
				}
				seen[id] = true
				if current <= last {
					return false
				}
				last = current
			}
			return len(seen) == n
		},
		gen.IntRange(1, 200),
	))

	props.TestingRun(t)
}
