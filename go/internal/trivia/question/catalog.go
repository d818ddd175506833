package question

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category is a selectable question category.
type Category struct {
	ID   int    `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// FallbackQuestion is served when the remote source keeps failing.
type FallbackQuestion struct {
	Category   int        `yaml:"category"`
	Difficulty Difficulty `yaml:"difficulty"`
	Prompt     string     `yaml:"prompt"`
	Correct    string     `yaml:"correct"`
	Incorrect  []string   `yaml:"incorrect"`
}

// Catalog holds the locally configured categories and fallback bank.
type Catalog struct {
	Categories []Category         `yaml:"categories"`
	Fallback   []FallbackQuestion `yaml:"fallback"`
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for i, f := range catalog.Fallback {
		if !f.Difficulty.Valid() {
			return nil, fmt.Errorf("fallback question %d: unknown difficulty %q", i, f.Difficulty)
		}
	}

	return &catalog, nil
}

// DefaultCatalog is used when no catalog file is configured.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Categories: []Category{
			{ID: 9, Name: "General Knowledge"},
			{ID: 17, Name: "Science & Nature"},
			{ID: 21, Name: "Sports"},
			{ID: 22, Name: "Geography"},
			{ID: 23, Name: "History"},
		},
		Fallback: []FallbackQuestion{
			{
				Category:   22,
				Difficulty: DifficultyEasy,
				Prompt:     "What is the capital of France?",
				Correct:    "Paris",
				Incorrect:  []string{"Lyon", "Marseille", "Nice"},
			},
			{
				Category:   22,
				Difficulty: DifficultyEasy,
				Prompt:     "Which is the largest ocean on Earth?",
				Correct:    "Pacific Ocean",
				Incorrect:  []string{"Atlantic Ocean", "Indian Ocean", "Arctic Ocean"},
			},
			{
				Category:   9,
				Difficulty: DifficultyEasy,
				Prompt:     "How many days are there in a leap year?",
				Correct:    "366",
				Incorrect:  []string{"365", "364", "367"},
			},
		},
	}
}
