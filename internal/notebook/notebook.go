// Package notebook models an interactive notebook as an opaque tree of cells
// with typed fields. Only the fields the compiler reads are modeled; unknown
// notebook metadata passes through untouched.
package notebook

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	CellTypeCode     = "code"
	CellTypeMarkdown = "markdown"
)

// Notebook is a parsed notebook document.
type Notebook struct {
	Cells         []*Cell                `json:"cells"`
	Metadata      map[string]interface{} `json:"metadata"`
	NBFormat      int                    `json:"nbformat"`
	NBFormatMinor int                    `json:"nbformat_minor"`
}

// Cell is a single notebook cell. Source tolerates both the list-of-lines
// and single-string encodings used in the wild.
type Cell struct {
	CellType       string                 `json:"cell_type"`
	Source         SourceText             `json:"source"`
	Metadata       map[string]interface{} `json:"metadata"`
	Outputs        []Output               `json:"outputs,omitempty"`
	ExecutionCount *int                   `json:"execution_count,omitempty"`
}

// Output is one captured output record of a code cell.
type Output struct {
	OutputType string                 `json:"output_type,omitempty"`
	Text       SourceText             `json:"text,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// SourceText is a notebook text field, stored as a single string but
// accepting either a string or a list of strings on the wire.
type SourceText string

func (s *SourceText) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = SourceText(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("source is neither string nor string list: %w", err)
	}
	*s = SourceText(strings.Join(many, ""))
	return nil
}

func (s SourceText) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// Parse decodes a notebook from its JSON encoding.
func Parse(data []byte) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("failed to parse notebook: %w", err)
	}
	return &nb, nil
}

// Load reads and parses a notebook file.
func Load(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read notebook %s: %w", path, err)
	}
	nb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("notebook %s: %w", path, err)
	}
	return nb, nil
}

// Write serializes the notebook to a file.
func Write(nb *Notebook, path string) error {
	b, err := json.MarshalIndent(nb, "", " ")
	if err != nil {
		return fmt.Errorf("failed to encode notebook: %w", err)
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("failed to write notebook %s: %w", path, err)
	}
	return nil
}

// NewCodeCell returns an empty code cell.
func NewCodeCell(source string) *Cell {
	return &Cell{
		CellType: CellTypeCode,
		Source:   SourceText(source),
		Metadata: map[string]interface{}{},
		Outputs:  []Output{},
	}
}

// SourceLines returns the cell source split into lines without trailing
// newline characters. An empty source yields a single empty line, matching
// the line-oriented view the classifier and extractor operate on.
func (c *Cell) SourceLines() []string {
	return strings.Split(strings.ReplaceAll(string(c.Source), "\r\n", "\n"), "\n")
}

// JoinedSource returns the cell source as one string.
func (c *Cell) JoinedSource() string {
	return string(c.Source)
}

// Lock makes a cell non-editable and non-deletable in place.
func Lock(c *Cell) {
	if c.Metadata == nil {
		c.Metadata = map[string]interface{}{}
	}
	c.Metadata["editable"] = false
	c.Metadata["deletable"] = false
}

// HasTag reports whether the cell metadata carries the given tag.
func (c *Cell) HasTag(tag string) bool {
	tags, ok := c.Metadata["tags"].([]interface{})
	if !ok {
		return false
	}
	for _, t := range tags {
		if s, ok := t.(string); ok && s == tag {
			return true
		}
	}
	return false
}

// CapturedText concatenates the captured output of a code cell: every text
// stream entry's text in output-entry order, plus every rich result's
// text/plain representation. A list-valued representation contributes its
// first element.
func CapturedText(c *Cell) string {
	var b strings.Builder
	for _, out := range c.Outputs {
		b.WriteString(string(out.Text))
		res, ok := out.Data["text/plain"]
		if !ok {
			continue
		}
		switch v := res.(type) {
		case []interface{}:
			if len(v) > 0 {
				if s, ok := v[0].(string); ok {
					b.WriteString(s)
				}
			}
		case string:
			b.WriteString(v)
		}
	}
	return b.String()
}

// StripOutputs removes all outputs and execution counts in place.
func StripOutputs(nb *Notebook) {
	for _, cell := range nb.Cells {
		if cell.Outputs != nil {
			cell.Outputs = []Output{}
		}
		cell.ExecutionCount = nil
	}
}
