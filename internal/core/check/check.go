// Package check resolves a net symbol count against the number required to
// pass.
package check

// DefaultRequired is the net success count a check needs when nothing else
// raises the bar.
const DefaultRequired = 1

// MeetsDifficulty returns true if net >= required.
func MeetsDifficulty(net, required int) bool {
	return net >= required
}

// Margin calculates the margin of success or failure.
// Positive or zero values indicate success, negative indicate failure.
func Margin(net, required int) int {
	return net - required
}

// Result represents the outcome of a check.
type Result struct {
	Success bool
	Margin  int
}

// Check resolves net against required. A required value below 1 is raised to
// DefaultRequired: a check never passes with zero net successes.
func Check(net, required int) Result {
	if required < DefaultRequired {
		required = DefaultRequired
	}
	return Result{
		Success: MeetsDifficulty(net, required),
		Margin:  Margin(net, required),
	}
}
