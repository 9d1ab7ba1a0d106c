package conventions

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"path/filepath"
)

const (
	// DefaultDataDir is the default rtboot data directory name (relative to home).
	DefaultDataDir = ".rtboot"
	// DBFile is the build history database filename.
	DBFile = "rtboot.db"

	// DockerfileName is the reserved name of the generated Dockerfile inside the
	// shipped build context.
	DockerfileName = ".rtboot.Dockerfile"
	// DockerfileIgnoreName is the ignore file bound to the generated Dockerfile, it
	// takes precedence over the context .dockerignore on BuildKit.
	DockerfileIgnoreName = DockerfileName + ".dockerignore"
	// DockerignoreName is the context wide ignore file. It is only generated when the
	// context doesn't have one, the classic builder strips the files it lists.
	DockerignoreName = ".dockerignore"

	// ImageRepositoryPrefix is the repository prefix of the tags of built images.
	ImageRepositoryPrefix = "rtboot"
	// ContainerNamePrefix is the prefix of launched container names.
	ContainerNamePrefix = "rtboot"

	// Image label keys (the OCI annotation keys are used for the standard ones).

	// LabelBuildID is the image label holding the rtboot build ID.
	LabelBuildID = "io.rtboot.build-id"
	// LabelContextDigest is the image label holding the build context digest.
	LabelContextDigest = "io.rtboot.context-digest"
)

// DBPath returns the build history database path inside a data directory.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// ImageTag returns the tag used for an image built from a recipe.
func ImageTag(recipeName, digest string) string {
	if len(digest) > 12 {
		digest = digest[:12]
	}
	return ImageRepositoryPrefix + "/" + recipeName + ":" + digest
}

// ImageDigest identifies the content of an image: the same rendered Dockerfile
// and build context digest always give the same image digest.
func ImageDigest(dockerfile, contextDigest string) string {
	h := sha256.New()
	_, _ = io.WriteString(h, dockerfile)
	_, _ = io.WriteString(h, "\x00")
	_, _ = io.WriteString(h, contextDigest)
	return hex.EncodeToString(h.Sum(nil))
}

// RootPath maps an absolute environment path into a root directory.
func RootPath(root, p string) string {
	return filepath.Join(root, filepath.FromSlash(p))
}
