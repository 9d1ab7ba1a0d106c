package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/rtboot/internal/model"
)

// JSONPrinter prints build information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// listItem represents a build in the list output (subset of fields).
type listItem struct {
	ID        string    `json:"id"`
	Recipe    string    `json:"recipe"`
	Engine    string    `json:"engine"`
	Status    string    `json:"status"`
	ImageTag  string    `json:"image_tag,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// buildOutput represents the full build output.
type buildOutput struct {
	ID            string       `json:"id"`
	Recipe        recipeOutput `json:"recipe"`
	Engine        string       `json:"engine"`
	Status        string       `json:"status"`
	ImageTag      string       `json:"image_tag,omitempty"`
	ImageID       string       `json:"image_id,omitempty"`
	ContextDigest string       `json:"context_digest,omitempty"`
	Error         string       `json:"error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	FinishedAt    *time.Time   `json:"finished_at"`
	Steps         []stepOutput `json:"steps"`
}

// recipeOutput represents the recipe of a build.
type recipeOutput struct {
	Name              string            `json:"name"`
	BaseImage         string            `json:"base_image"`
	SystemPackages    []string          `json:"system_packages"`
	ExtensionPackages []string          `json:"extension_packages"`
	Env               map[string]string `json:"env"`
	WorkingDir        string            `json:"working_dir"`
	Command           []string          `json:"command"`
}

// stepOutput represents a tracked build step.
type stepOutput struct {
	Sequence int    `json:"sequence"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintBuildList prints builds in JSON format with a subset of fields.
func (j *JSONPrinter) PrintBuildList(builds []model.Build) error {
	items := make([]listItem, len(builds))
	for i, b := range builds {
		items[i] = listItem{
			ID:        b.ID,
			Recipe:    b.Recipe.Name,
			Engine:    string(b.Engine),
			Status:    string(b.Status),
			ImageTag:  b.ImageTag,
			CreatedAt: b.CreatedAt.UTC(),
		}
	}

	return j.encode(items)
}

// PrintBuild prints the build and its steps in JSON format.
func (j *JSONPrinter) PrintBuild(b model.Build, steps []model.Step) error {
	output := buildOutput{
		ID: b.ID,
		Recipe: recipeOutput{
			Name:              b.Recipe.Name,
			BaseImage:         b.Recipe.BaseImage,
			SystemPackages:    b.Recipe.SystemPackages,
			ExtensionPackages: b.Recipe.ExtensionPackages,
			Env:               b.Recipe.Env,
			WorkingDir:        b.Recipe.WorkingDir,
			Command:           b.Recipe.Command,
		},
		Engine:        string(b.Engine),
		Status:        string(b.Status),
		ImageTag:      b.ImageTag,
		ImageID:       b.ImageID,
		ContextDigest: b.ContextDigest,
		Error:         b.Error,
		CreatedAt:     b.CreatedAt.UTC(),
		Steps:         make([]stepOutput, 0, len(steps)),
	}

	if b.FinishedAt != nil {
		utcTime := b.FinishedAt.UTC()
		output.FinishedAt = &utcTime
	}

	for _, s := range steps {
		output.Steps = append(output.Steps, stepOutput{
			Sequence: s.Sequence,
			Name:     s.Name,
			Status:   string(s.Status),
			Error:    s.Error,
		})
	}

	return j.encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
