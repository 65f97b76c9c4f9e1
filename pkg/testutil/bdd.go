package testutil

import "testing"

// Given, When and Then name nested subtests so `go test -run` output reads
// as a scenario: "Given a uuid-keyed check/When the uuid is denied/Then ...".

func Given(t *testing.T, precondition string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+precondition, fn)
}

func When(t *testing.T, action string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+action, fn)
}

func Then(t *testing.T, expectation string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+expectation, fn)
}
