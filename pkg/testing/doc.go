// Package testing provides a tree testing harness for Canopy.
//
// # Quick Start
//
// Create a tester, mount a tree, and make assertions:
//
//	func TestCounter(t *testing.T) {
//	    tester := canopytest.NewTreeTesterWithT(t)
//	    tester.MountTree(core.C(Counter, CounterProps{Initial: 0}))
//
//	    // Find nodes
//	    label := tester.Find(canopytest.ByText("0")).First()
//
//	    // Drive state from outside the tree
//	    tester.Dispatch(func() { increment() })
//	    tester.Pump()
//
//	    // Assert state
//	    if !tester.Find(canopytest.ByText("1")).Exists() {
//	        t.Error("expected '1' text")
//	    }
//	}
//
// # Snapshot Testing
//
// Capture and compare tree snapshots:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/counter.snapshot.json")
//
// Update snapshots with:
//
//	CANOPY_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Settling
//
// Effects that set state schedule follow-up renders. Pump runs exactly one
// tick; PumpUntilSettled keeps pumping until the tree stops scheduling
// work:
//
//	if err := tester.PumpUntilSettled(32); err != nil {
//	    t.Fatal(err)
//	}
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import canopytest "github.com/go-canopy/canopy/pkg/testing"
package testing
