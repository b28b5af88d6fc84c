package assessment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Questions []questionFile `yaml:"questions"`
}

type questionFile struct {
	ID        string            `yaml:"id"`
	Type      QuestionType      `yaml:"type"`
	Prompt    map[string]string `yaml:"prompt"`
	Config    QuestionConfig    `yaml:"config,omitempty"`
	DependsOn *Condition        `yaml:"depends_on,omitempty"`
}

// ParseCatalogYAML builds a catalog from its YAML definition. Branching is
// expressed declaratively through depends_on.
func ParseCatalogYAML(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalidCatalog, err)
	}
	questions := make([]Question, 0, len(f.Questions))
	for _, q := range f.Questions {
		questions = append(questions, Question{
			ID:         q.ID,
			Type:       q.Type,
			PromptI18n: q.Prompt,
			Config:     q.Config,
			Condition:  q.DependsOn,
		})
	}
	return NewCatalog(questions)
}

// LoadCatalogFile reads and parses a YAML catalog from path.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalogYAML(data)
}

// MarshalCatalogYAML renders c in the format ParseCatalogYAML reads.
// Questions whose branching is only a Go predicate are written without depends_on.
func MarshalCatalogYAML(c *Catalog) ([]byte, error) {
	f := catalogFile{Questions: make([]questionFile, 0, c.Len())}
	for _, q := range c.Questions() {
		f.Questions = append(f.Questions, questionFile{
			ID:        q.ID,
			Type:      q.Type,
			Prompt:    q.PromptI18n,
			Config:    q.Config,
			DependsOn: q.Condition,
		})
	}
	return yaml.Marshal(f)
}
