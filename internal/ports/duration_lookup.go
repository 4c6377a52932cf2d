package ports

// Budgeted duration lookups used by the planners.
type DurationLookup interface {
	DurationOracle
	// Remaining returns the oracle calls left in the current run.
	Remaining() int
}
