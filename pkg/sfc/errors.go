package sfc

import "fmt"

// Returned when a block needs a collaborator that was never registered, such
// as a Pug renderer for '<template lang="pug">'. This is raised lazily, only
// when a file actually uses the language.
type MissingDependencyError struct {
	// What is missing, for example "pug" or "template compiler"
	Name string

	// What it is needed for, for example "Pug template rendering"
	Purpose string

	// How to fix it
	Remedy string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s requires %s, which is not available. %s", e.Purpose, e.Name, e.Remedy)
}
