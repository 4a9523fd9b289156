// Command geometa extracts metadata and extents from geospatial sources.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// go build -ldflags="-s -w -X 'github.com/tingold/orb-geometa/internal/version.Version=v1.0.0' -X 'github.com/tingold/orb-geometa/internal/version.Revision=$(git rev-parse HEAD)'" ./cmd/geometa
