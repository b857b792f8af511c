// Package testutils holds helpers shared by the tests, the demos and the synth command.
package testutils

import (
	"go.uber.org/goleak"
)

// VerifyTestMain runs the tests of a package and fails if goroutines are left running.
func VerifyTestMain(m goleak.TestingM) {
	goleak.VerifyTestMain(m)
}
