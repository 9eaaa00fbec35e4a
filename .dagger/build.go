package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/quill/internal/dagger"
)

// Build and return directory of go binaries
func (q *Quill) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	// sqlite needs CGO, so the matrix stays on linux where the toolchain
	// can link it.
	goarches := []string{"amd64", "arm64"}

	// create empty directory to put build artifacts
	outputs := dag.Directory()

	for _, goarch := range goarches {
		path := fmt.Sprintf("linux/%s/", goarch)

		build := q.goContainer().
			WithEnvVariable("GOOS", "linux").
			WithEnvVariable("GOARCH", goarch).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/quill"})

		// add build to outputs
		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	// return build directory
	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (q *Quill) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/quillhq/quill/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/quillhq/quill/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/quillhq/quill/pkg/utils.Buildtime=%s'", buildtime),
	}

	return q.Build(ctx, strings.Join(ldflags, " "))
}
