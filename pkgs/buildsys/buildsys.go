package buildsys

import "context"

// BuildSystem captures the configure/build/install lifecycle shared by
// build tool drivers. Every step blocks until the tool exits.
type BuildSystem interface {
	// Environment of every spawned tool, as KEY=VALUE pairs.
	Env(environ []string)

	// Lifecycle.
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}
