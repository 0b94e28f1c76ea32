// Package prompts loads the versioned rubric document holding the
// label-reading and damage-classification prompts.
package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed rubric.yaml
var defaultRubric []byte

// Rubric is the prompt document.
type Rubric struct {
	Version  string `yaml:"version"`
	Sentinel string `yaml:"sentinel"`

	DateExtraction struct {
		Instruction string `yaml:"instruction"`
	} `yaml:"date_extraction"`

	ClaimAssessment struct {
		System       string `yaml:"system"`
		SingleImage  string `yaml:"single_image"`
		MultiImage   string `yaml:"multi_image"`
		VideoFrames  string `yaml:"video_frames"`
		MetadataOnly string `yaml:"metadata_only"`
	} `yaml:"claim_assessment"`

	ClaimCriteria   []string `yaml:"claim_criteria"`
	UnclaimCriteria []string `yaml:"unclaim_criteria"`

	claimSystem  string
	multiImage   *template.Template
	videoFrames  *template.Template
	metadataOnly *template.Template
}

// Default returns the embedded rubric.
func Default() (*Rubric, error) {
	return Parse(defaultRubric)
}

// Load reads a rubric from path. An empty path returns the embedded rubric.
func Load(path string) (*Rubric, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "prompts: read rubric %s", path)
	}
	return Parse(data)
}

// Parse decodes and compiles a rubric document.
func Parse(data []byte) (*Rubric, error) {
	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "prompts: parse rubric")
	}

	switch {
	case strings.TrimSpace(r.Sentinel) == "":
		return nil, eris.New("prompts: rubric has no sentinel")
	case strings.TrimSpace(r.DateExtraction.Instruction) == "":
		return nil, eris.New("prompts: rubric has no date extraction instruction")
	case strings.TrimSpace(r.ClaimAssessment.System) == "":
		return nil, eris.New("prompts: rubric has no claim assessment prompt")
	}

	system, err := render("system", r.ClaimAssessment.System, map[string]string{
		"ClaimCriteria":   numbered(r.ClaimCriteria),
		"UnclaimCriteria": numbered(r.UnclaimCriteria),
	})
	if err != nil {
		return nil, err
	}
	r.claimSystem = system

	if r.multiImage, err = compile("multi_image", r.ClaimAssessment.MultiImage); err != nil {
		return nil, err
	}
	if r.videoFrames, err = compile("video_frames", r.ClaimAssessment.VideoFrames); err != nil {
		return nil, err
	}
	if r.metadataOnly, err = compile("metadata_only", r.ClaimAssessment.MetadataOnly); err != nil {
		return nil, err
	}
	return &r, nil
}

// DatePrompt is the label-reading instruction.
func (r *Rubric) DatePrompt() string {
	return strings.TrimSpace(r.DateExtraction.Instruction)
}

// ClaimSystemPrompt is the damage-classification rubric with its criteria
// filled in.
func (r *Rubric) ClaimSystemPrompt() string {
	return r.claimSystem
}

// IsSentinel reports whether a model answer is the "no date visible" phrase.
func (r *Rubric) IsSentinel(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(r.Sentinel))
}

// ImageInstruction is the user turn for n uploaded images.
func (r *Rubric) ImageInstruction(n int) string {
	if n <= 1 {
		return strings.TrimSpace(r.ClaimAssessment.SingleImage)
	}
	return execute(r.multiImage, map[string]int{"Count": n})
}

// FramesInstruction is the user turn for n frames sampled from a video.
func (r *Rubric) FramesInstruction(n int) string {
	return execute(r.videoFrames, map[string]int{"Count": n})
}

// MetadataInstruction is the user turn when only a text summary of the video
// is available.
func (r *Rubric) MetadataInstruction(summary string) string {
	return execute(r.metadataOnly, map[string]string{"Summary": summary})
}

func numbered(items []string) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "   %d. %s\n", i+1, strings.TrimSpace(it))
	}
	return strings.TrimRight(b.String(), "\n")
}

func compile(name, text string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, eris.Wrapf(err, "prompts: compile %s", name)
	}
	return t, nil
}

func render(name, text string, data any) (string, error) {
	t, err := compile(name, text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", eris.Wrapf(err, "prompts: render %s", name)
	}
	return strings.TrimSpace(buf.String()), nil
}

// execute renders a compiled template. The templates only reference the keys
// passed by this package, so a failure leaves the raw template text.
func execute(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return t.Root.String()
	}
	return strings.TrimSpace(buf.String())
}
