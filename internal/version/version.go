// Package version carries build metadata set through -ldflags.
package version

var (
	Version   = "dev"
	Revision  = ""
	Branch    = ""
	BuildDate = ""
)

// String returns the version with the revision appended when known.
func String() string {
	if Revision == "" {
		return Version
	}
	return Version + " (" + Revision + ")"
}
