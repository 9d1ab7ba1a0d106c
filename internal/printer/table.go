package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/slok/rtboot/internal/model"
)

// TablePrinter prints build information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintBuildList prints builds in a table format.
func (t *TablePrinter) PrintBuildList(builds []model.Build) error {
	if len(builds) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "ID\tRECIPE\tENGINE\tSTATUS\tIMAGE\tCREATED")

	// Print rows.
	for _, b := range builds {
		image := b.ImageTag
		if image == "" {
			image = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.Recipe.Name, b.Engine, b.Status, image, TimeAgo(b.CreatedAt))
	}

	return nil
}

// PrintBuild prints detailed build information with its steps.
func (t *TablePrinter) PrintBuild(b model.Build, steps []model.Step) error {
	fmt.Fprintf(t.writer, "ID:         %s\n", b.ID)
	fmt.Fprintf(t.writer, "Recipe:     %s\n", b.Recipe.Name)
	fmt.Fprintf(t.writer, "Engine:     %s\n", b.Engine)
	fmt.Fprintf(t.writer, "Status:     %s\n", b.Status)
	fmt.Fprintf(t.writer, "Base:       %s\n", b.Recipe.BaseImage)
	fmt.Fprintf(t.writer, "Command:    %s\n", strings.Join(b.Recipe.Command, " "))

	if b.ImageTag != "" {
		fmt.Fprintf(t.writer, "Image:      %s\n", b.ImageTag)
	}
	if b.ImageID != "" {
		fmt.Fprintf(t.writer, "Image ID:   %s\n", b.ImageID)
	}
	if b.ContextDigest != "" {
		fmt.Fprintf(t.writer, "Context:    sha256:%s\n", b.ContextDigest)
	}
	if b.Error != "" {
		fmt.Fprintf(t.writer, "Error:      %s\n", b.Error)
	}

	fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(b.CreatedAt))
	if b.FinishedAt != nil {
		fmt.Fprintf(t.writer, "Finished:   %s (took %s)\n", FormatTimestamp(*b.FinishedAt), BuildDuration(b.CreatedAt, b.FinishedAt))
	}

	if len(steps) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "#\tSTEP\tSTATUS\tERROR")
	for _, s := range steps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Sequence, s.Name, s.Status, s.Error)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
