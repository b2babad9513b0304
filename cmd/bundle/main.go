// Command bundle loads a directory of tracks, bundles them and writes the
// result back as CSV, optionally with a PNG preview.
//
//	bundle run --input tracks/ --output bundled/ --preview out.png --seed 42
//
// Every flag can also be given as a BUNDLE_* environment variable, for
// example BUNDLE_BACKEND=software.
package main

import (
	"os"

	_ "github.com/gogpu/bundle/compute/software"
	_ "github.com/gogpu/bundle/compute/wgpu"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
