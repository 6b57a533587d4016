package task

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	tasksassets "github.com/earnbuzz/earnbuzz/internal/assets/tasks"
)

// Task is a rewardable social action.
type Task struct {
	ID          string `yaml:"id" json:"id"`
	Platform    string `yaml:"platform" json:"platform"`
	Description string `yaml:"description" json:"description"`
	Category    string `yaml:"category" json:"category"`
	Reward      int64  `yaml:"reward" json:"reward"`
	Link        string `yaml:"link" json:"link"`
	Icon        string `yaml:"icon,omitempty" json:"icon,omitempty"`
}

// Catalog is an ordered, immutable set of tasks.
type Catalog struct {
	tasks []Task
	byID  map[string]int
}

type catalogFile struct {
	Tasks []Task `yaml:"tasks"`
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(source string, data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse task catalog %s: %w", source, err)
	}
	if len(file.Tasks) == 0 {
		return nil, fmt.Errorf("task catalog %s has no tasks", source)
	}

	catalog := &Catalog{
		tasks: make([]Task, 0, len(file.Tasks)),
		byID:  make(map[string]int, len(file.Tasks)),
	}
	for i, t := range file.Tasks {
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			return nil, fmt.Errorf("task catalog %s: task %d missing id", source, i)
		}
		if t.Reward <= 0 {
			return nil, fmt.Errorf("task catalog %s: task %q reward must be positive", source, t.ID)
		}
		if _, dup := catalog.byID[t.ID]; dup {
			return nil, fmt.Errorf("task catalog %s: duplicate task id %q", source, t.ID)
		}
		catalog.byID[t.ID] = len(catalog.tasks)
		catalog.tasks = append(catalog.tasks, t)
	}
	return catalog, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog("embedded", tasksassets.CatalogYAML)
}

// LoadCatalog reads a catalog from path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path) // #nosec G304 -- catalog path is operator-provided
	if err != nil {
		return nil, fmt.Errorf("read task catalog %s: %w", path, err)
	}
	return ParseCatalog(path, data)
}

// Tasks returns the tasks in catalog order.
func (c *Catalog) Tasks() []Task {
	if c == nil {
		return nil
	}
	out := make([]Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Get looks up a task by id.
func (c *Catalog) Get(id string) (Task, bool) {
	if c == nil {
		return Task{}, false
	}
	idx, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Task{}, false
	}
	return c.tasks[idx], true
}

// Len returns the number of tasks.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tasks)
}
