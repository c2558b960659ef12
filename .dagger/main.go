// Parley CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/parley/internal/dagger"
)

// Parley is the main module for the parley CI/CD pipeline
type Parley struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Parley CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", "build", "tmp", ".parley"]
	source *dagger.Directory,
) *Parley {
	return &Parley{
		Source: source,
	}
}

// goContainer returns an Alpine Go container with the module caches and the
// project source mounted. parley is pure Go, so CGO stays off.
func (p *Parley) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", p.Source)
}

// Test runs the parley unit tests via "go test"
func (p *Parley) Test(ctx context.Context) (string, error) {
	return p.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
