package model

import "fmt"

// assert panics on a broken engine invariant. These are logic bugs in move generation or history
// bookkeeping, never user input.
func assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("model: invariant violated: "+format, args...))
	}
}
