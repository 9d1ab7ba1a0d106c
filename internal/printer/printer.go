package printer

import "github.com/slok/rtboot/internal/model"

// Printer knows how to print build information in different formats.
type Printer interface {
	PrintBuildList(builds []model.Build) error
	PrintBuild(build model.Build, steps []model.Step) error
	PrintMessage(msg string) error
}
