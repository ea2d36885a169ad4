package tasksplit

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

type prompt struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type prompts struct {
	ZH prompt `yaml:"zh"`
	EN prompt `yaml:"en"`
}

func loadPrompts(data []byte) (prompts, error) {
	var p prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("prompts: %w", err)
	}
	if p.ZH.User == "" || p.EN.User == "" {
		return p, fmt.Errorf("prompts: zh and en templates are required")
	}
	return p, nil
}

// forLanguage picks the Chinese template for any "zh*" tag.
func (p prompts) forLanguage(lang string) prompt {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), "zh") {
		return p.ZH
	}
	return p.EN
}

func (p prompt) render(task string) string {
	return strings.ReplaceAll(p.User, "{task}", task)
}
