// Package identity parses the human-authored frontmatter header that
// precedes a holon's identity file: a "---"-delimited block of
// key: value pairs, quoted strings and "[a, b]" flow lists — a valid
// YAML mapping, so it is decoded with a real YAML decoder rather than a
// hand-rolled line scanner.
package identity

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingFrontmatter is returned when the input does not begin with
// a "---" delimiter line.
var ErrMissingFrontmatter = errors.New("missing-frontmatter")

// ErrUnterminatedFrontmatter is returned when an opening "---" line is
// never followed by a closing one.
var ErrUnterminatedFrontmatter = errors.New("unterminated-frontmatter")

// Frontmatter is the recognised key set of an identity file header.
// Unrecognised keys are preserved in Extra.
type Frontmatter struct {
	UUID         string   `yaml:"uuid"`
	GivenName    string   `yaml:"given_name"`
	FamilyName   string   `yaml:"family_name"`
	Motto        string   `yaml:"motto"`
	Composer     string   `yaml:"composer"`
	Clade        string   `yaml:"clade"`
	Status       string   `yaml:"status"`
	Born         string   `yaml:"born"`
	Lang         string   `yaml:"lang"`
	Reproduction string   `yaml:"reproduction"`
	GeneratedBy  string   `yaml:"generated_by"`
	ProtoStatus  string   `yaml:"proto_status"`
	Parents      []string `yaml:"parents"`
	Aliases      []string `yaml:"aliases"`

	Extra map[string]any `yaml:"-"`
}

// Parse extracts and decodes the frontmatter block from the start of
// doc. The block must open with a line that is "---" and close with
// another line that is "---" (surrounding whitespace on either line is
// ignored); everything after the
// closing delimiter is body text and is not inspected.
func Parse(doc string) (Frontmatter, error) {
	lines := strings.Split(doc, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return Frontmatter{}, ErrMissingFrontmatter
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return Frontmatter{}, ErrUnterminatedFrontmatter
	}

	block := strings.Join(lines[1:end], "\n")

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return Frontmatter{}, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(block), &raw); err == nil {
		fm.Extra = extraKeys(raw)
	}

	return fm, nil
}

var knownKeys = map[string]bool{
	"uuid": true, "given_name": true, "family_name": true, "motto": true,
	"composer": true, "clade": true, "status": true, "born": true,
	"lang": true, "reproduction": true, "generated_by": true,
	"proto_status": true, "parents": true, "aliases": true,
}

func extraKeys(raw map[string]any) map[string]any {
	extra := make(map[string]any)
	for k, v := range raw {
		if !knownKeys[k] {
			extra[k] = v
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}
