package testutil

// Generator adapts a function to the engine's IDGenerator interface.
type Generator func() string

// Generate calls g.
func (g Generator) Generate() string { return g() }

// Fixed returns an ID generator that always hands out id. Scenario engines
// are named after their calculation, so traces read the same on every run.
func Fixed(id string) Generator {
	return Generator(func() string { return id })
}
