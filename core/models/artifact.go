package models

// ArtifactKind identifies one of the well-known diagnostic files a run
// leaves in its stage directory.
type ArtifactKind string

const (
	ArtifactReport   ArtifactKind = "report"
	ArtifactTimeline ArtifactKind = "timeline"
	ArtifactTrace    ArtifactKind = "trace"
)

// artifactFiles maps each kind to its fixed filename under the run's
// directory in the stage.
var artifactFiles = map[ArtifactKind]string{
	ArtifactReport:   "report.html",
	ArtifactTimeline: "timeline.html",
	ArtifactTrace:    "trace.txt",
}

// ParseArtifactKind resolves a request path segment to an artifact kind.
func ParseArtifactKind(s string) (ArtifactKind, bool) {
	k := ArtifactKind(s)
	_, ok := artifactFiles[k]
	return k, ok
}

// Filename returns the stage filename for the kind.
func (k ArtifactKind) Filename() (string, bool) {
	f, ok := artifactFiles[k]
	return f, ok
}

// ContentType returns the MIME type the artifact is served with.
func (k ArtifactKind) ContentType() string {
	if k == ArtifactTrace {
		return "text/plain; charset=utf-8"
	}
	return "text/html; charset=utf-8"
}
