package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterFence = "---"

// ErrNoFrontmatter indicates an activity file does not open with a YAML
// frontmatter block.
var ErrNoFrontmatter = errors.New("no frontmatter")

// ReadFrontmatter loads the YAML frontmatter of the activity file at path.
func ReadFrontmatter(path string) (map[string]any, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read activity file: %w", err)
	}
	return ParseFrontmatter(string(rawData))
}

// ParseFrontmatter extracts the block between the opening and closing "---"
// lines of content.
func ParseFrontmatter(content string) (map[string]any, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterFence {
		return nil, ErrNoFrontmatter
	}

	for index := 1; index < len(lines); index++ {
		if strings.TrimSpace(lines[index]) != frontmatterFence {
			continue
		}
		frontmatter := map[string]any{}
		if err := yaml.Unmarshal([]byte(strings.Join(lines[1:index], "\n")), &frontmatter); err != nil {
			return nil, fmt.Errorf("parse frontmatter yaml: %w", err)
		}
		return frontmatter, nil
	}
	return nil, fmt.Errorf("%w: missing closing fence", ErrNoFrontmatter)
}
