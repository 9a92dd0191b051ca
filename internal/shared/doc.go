// Package shared provides test helpers used across the calcium analysis packages.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - A buffered slog handler for asserting on structured log output
//   - Recording fixtures that write synthetic workbooks and CSV files
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteWorkbook(t, testutil.ScenarioRows())
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "analysis completed")
//	}
//
// It should NOT contain business logic or anything imported by production code.
package shared
