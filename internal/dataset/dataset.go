// Package dataset exposes the static government reference data used to route
// complaints: departments, districts, priority keywords, reply templates and
// helpline numbers. The data is embedded in the binary and never mutated.
package dataset

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed dataset.yaml
var embedded []byte

type ProjectInfo struct {
	Name     string `yaml:"name" json:"name"`
	Theme    string `yaml:"theme" json:"theme"`
	Helpline string `yaml:"helpline" json:"helpline"`
	Version  string `yaml:"version" json:"version"`
}

type Department struct {
	Name             string   `yaml:"name" json:"name"`
	Category         string   `yaml:"category" json:"category"`
	Contact          string   `yaml:"contact" json:"contact"`
	Email            string   `yaml:"email" json:"email"`
	EmergencyContact string   `yaml:"emergency_contact" json:"emergencyContact"`
	ResponseTime     string   `yaml:"response_time" json:"responseTime"`
	Head             string   `yaml:"head" json:"head"`
	Address          string   `yaml:"address" json:"address"`
	Services         []string `yaml:"services" json:"services"`
	PriorityKeywords []string `yaml:"priority_keywords" json:"priorityKeywords"`
}

type District struct {
	Name         string `yaml:"name" json:"name"`
	Division     string `yaml:"division" json:"division"`
	DMContact    string `yaml:"dm_contact" json:"dmContact"`
	Collectorate string `yaml:"collectorate" json:"collectorate"`
}

type KeywordGroup struct {
	General []string `yaml:"general" json:"general"`
}

type PriorityKeywords struct {
	Critical KeywordGroup `yaml:"critical" json:"critical"`
	High     KeywordGroup `yaml:"high" json:"high"`
	Low      KeywordGroup `yaml:"low" json:"low"`
}

// Templates maps category → priority → ordered reply templates.
type Templates map[string]map[string][]string

// Data is the full document as served by the reference data endpoint.
type Data struct {
	ProjectInfo      ProjectInfo       `yaml:"project_info" json:"projectInfo"`
	Helplines        map[string]string `yaml:"helplines" json:"helplines"`
	Departments      []Department      `yaml:"departments" json:"departments"`
	Districts        []District        `yaml:"districts" json:"districts"`
	PriorityKeywords PriorityKeywords  `yaml:"priority_keywords" json:"priorityKeywords"`
	Templates        Templates         `yaml:"response_templates" json:"responseTemplates"`
}

type Stats struct {
	Departments      int `json:"departments"`
	Districts        int `json:"districts"`
	DepartmentTerms  int `json:"departmentKeywords"`
	PriorityTerms    int `json:"priorityKeywords"`
	ResponseTemplate int `json:"responseTemplates"`
	Helplines        int `json:"helplines"`
}

// Dataset is an indexed, read-only view over Data.
type Dataset struct {
	data        Data
	departments map[string]int
	districts   map[string]int
}

// Load parses the embedded reference data.
func Load() (*Dataset, error) {
	return Parse(embedded)
}

// Parse builds a Dataset from YAML. Department and district names must be
// unique (case-insensitively).
func Parse(raw []byte) (*Dataset, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	ds := &Dataset{
		data:        data,
		departments: make(map[string]int, len(data.Departments)),
		districts:   make(map[string]int, len(data.Districts)),
	}
	for i, d := range data.Departments {
		key := normalize(d.Name)
		if key == "" {
			return nil, fmt.Errorf("department %d has no name", i)
		}
		if _, dup := ds.departments[key]; dup {
			return nil, fmt.Errorf("duplicate department %q", d.Name)
		}
		for j, kw := range d.PriorityKeywords {
			data.Departments[i].PriorityKeywords[j] = strings.ToLower(kw)
		}
		ds.departments[key] = i
	}
	for i, d := range data.Districts {
		key := normalize(d.Name)
		if _, dup := ds.districts[key]; dup {
			return nil, fmt.Errorf("duplicate district %q", d.Name)
		}
		ds.districts[key] = i
	}
	return ds, nil
}

// MustLoad panics if the embedded data is invalid.
func MustLoad() *Dataset {
	ds, err := Load()
	if err != nil {
		panic(err)
	}
	return ds
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Departments returns the department records in declaration order.
func (d *Dataset) Departments() []Department {
	out := make([]Department, len(d.data.Departments))
	copy(out, d.data.Departments)
	return out
}

func (d *Dataset) DepartmentInfo(name string) (Department, bool) {
	i, ok := d.departments[normalize(name)]
	if !ok {
		return Department{}, false
	}
	return d.data.Departments[i], true
}

func (d *Dataset) DistrictInfo(name string) (District, bool) {
	i, ok := d.districts[normalize(name)]
	if !ok {
		return District{}, false
	}
	return d.data.Districts[i], true
}

func (d *Dataset) PriorityKeywords() PriorityKeywords {
	return d.data.PriorityKeywords
}

func (d *Dataset) ResponseTemplates() Templates {
	return d.data.Templates
}

// Template returns the first template for category and priority.
func (d *Dataset) Template(category, priority string) (string, bool) {
	byPriority, ok := d.data.Templates[category]
	if !ok {
		return "", false
	}
	list := byPriority[priority]
	if len(list) == 0 {
		return "", false
	}
	return list[0], true
}

// HelplineNumber returns the number for kind ("cm_helpline", "emergency",
// ...). Unknown kinds get the CM helpline.
func (d *Dataset) HelplineNumber(kind string) string {
	if n, ok := d.data.Helplines[kind]; ok && n != "" {
		return n
	}
	if n := d.data.Helplines["cm_helpline"]; n != "" {
		return n
	}
	return "1076"
}

func (d *Dataset) ProjectInfo() ProjectInfo {
	return d.data.ProjectInfo
}

func (d *Dataset) Stats() Stats {
	s := Stats{
		Departments: len(d.data.Departments),
		Districts:   len(d.data.Districts),
		Helplines:   len(d.data.Helplines),
	}
	for _, dep := range d.data.Departments {
		s.DepartmentTerms += len(dep.PriorityKeywords)
	}
	pk := d.data.PriorityKeywords
	s.PriorityTerms = len(pk.Critical.General) + len(pk.High.General) + len(pk.Low.General)
	for _, byPriority := range d.data.Templates {
		for _, list := range byPriority {
			s.ResponseTemplate += len(list)
		}
	}
	return s
}

// Complete returns the whole document.
func (d *Dataset) Complete() Data {
	return d.data
}
