// Package entities defines core domain models and data structures.
package entities

// ArtifactKind identifies the role of a downloaded file
type ArtifactKind string

// Artifact kinds recorded by downloaders
const (
	ArtifactBinary       ArtifactKind = "binary"
	ArtifactDebugSymbols ArtifactKind = "debug-symbols"
)

// ArtifactSet maps artifact kinds to local file paths owned by one relay run
type ArtifactSet map[ArtifactKind]string
