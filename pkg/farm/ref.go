package farm

import "strings"

const arnPrefix = "arn:"

// IsARN reports whether s is a service-issued resource identifier rather
// than a human-chosen name.
func IsARN(s string) bool {
	return strings.HasPrefix(s, arnPrefix)
}

// Ref identifies a remote resource either by ARN or by a name that still
// needs resolution. Construct one with ParseRef at the flag-parsing
// boundary so the pipeline never re-sniffs raw strings.
type Ref struct {
	arn  string
	name string
}

// ParseRef classifies a user-supplied string as an ARN or a name.
func ParseRef(s string) Ref {
	if IsARN(s) {
		return Ref{arn: s}
	}
	return Ref{name: s}
}

func (r Ref) ARN() string  { return r.arn }
func (r Ref) Name() string { return r.name }
func (r Ref) IsARN() bool  { return r.arn != "" }
func (r Ref) IsZero() bool { return r.arn == "" && r.name == "" }

func (r Ref) String() string {
	if r.IsARN() {
		return r.arn
	}
	return r.name
}

// ArtifactRef points at a run artifact: either an upload that already
// exists remotely (ARN) or a local file that still needs uploading.
type ArtifactRef struct {
	arn  string
	path string
}

// ParseArtifact classifies a user-supplied string as an existing upload ARN
// or a local file path.
func ParseArtifact(s string) ArtifactRef {
	if IsARN(s) {
		return ArtifactRef{arn: s}
	}
	return ArtifactRef{path: s}
}

func (a ArtifactRef) ARN() string  { return a.arn }
func (a ArtifactRef) Path() string { return a.path }
func (a ArtifactRef) IsARN() bool  { return a.arn != "" }
func (a ArtifactRef) IsZero() bool { return a.arn == "" && a.path == "" }
