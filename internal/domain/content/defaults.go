package content

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed default_layout.yaml
var defaultLayoutYAML []byte

type layoutFile struct {
	Slug            string          `yaml:"slug"`
	Title           string          `yaml:"title"`
	MetaDescription string          `yaml:"meta_description"`
	Sections        []layoutSection `yaml:"sections"`
}

type layoutSection struct {
	Type   string        `yaml:"type"`
	Blocks []layoutBlock `yaml:"blocks"`
}

type layoutBlock struct {
	Type    string         `yaml:"type"`
	Content map[string]any `yaml:"content"`
}

// DefaultLayout is the statically coded page shown when the CMS page cannot
// be fetched. Sections and blocks are published and numbered from zero; ids
// are left empty because nothing here is persisted.
func DefaultLayout() (*Page, error) {
	return parseLayout(defaultLayoutYAML)
}

func parseLayout(raw []byte) (*Page, error) {
	var lf layoutFile
	if err := yaml.Unmarshal(raw, &lf); err != nil {
		return nil, fmt.Errorf("parse default layout: %w", err)
	}
	if lf.Slug == "" {
		lf.Slug = HomeSlug
	}

	page := &Page{
		Slug:            lf.Slug,
		Title:           lf.Title,
		MetaDescription: lf.MetaDescription,
		Status:          StatusPublished,
		Sections:        make([]Section, 0, len(lf.Sections)),
	}
	for i, ls := range lf.Sections {
		if ls.Type == "" {
			return nil, fmt.Errorf("parse default layout: section %d has no type", i)
		}
		sec := Section{
			Type:      ls.Type,
			SortIndex: i,
			Status:    StatusPublished,
			Blocks:    make([]Block, 0, len(ls.Blocks)),
		}
		for j, lb := range ls.Blocks {
			sec.Blocks = append(sec.Blocks, Block{
				Type:      lb.Type,
				Content:   Payload(lb.Content),
				SortIndex: j,
				Version:   1,
			})
		}
		page.Sections = append(page.Sections, sec)
	}
	return page, nil
}
