package types

// ImageBuildConfig DTO descreve um docker build local.
type ImageBuildConfig struct {
	ContextDir string
	Dockerfile string // relative to ContextDir when empty defaults to Dockerfile
	Platform   string // e.g. linux/amd64
	BuildArgs  map[string]string
	ImageName  string // local tag; defaults to the repository name
}
