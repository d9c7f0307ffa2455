package siteapi

import "ministry-site/internal/domain/content"

type BlockDTO struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Order   int             `json:"order"`
	Version int             `json:"version"`
	Content content.Payload `json:"content"`
}

type SectionDTO struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Order       int        `json:"order"`
	Specialized bool       `json:"specialized"`
	Blocks      []BlockDTO `json:"blocks"`
}

type PageDTO struct {
	ID              string       `json:"id"`
	Slug            string       `json:"slug"`
	Title           string       `json:"title"`
	MetaDescription string       `json:"meta_description"`
	Sections        []SectionDTO `json:"sections"`
}

func toPageDTO(p *content.Page) PageDTO {
	out := PageDTO{
		ID:              p.ID,
		Slug:            p.Slug,
		Title:           p.Title,
		MetaDescription: p.MetaDescription,
		Sections:        make([]SectionDTO, 0, len(p.Sections)),
	}
	for _, s := range p.Sections {
		sec := SectionDTO{
			ID:          s.ID,
			Type:        s.Type,
			Order:       s.SortIndex,
			Specialized: content.IsSpecialized(s.Type),
			Blocks:      make([]BlockDTO, 0, len(s.Blocks)),
		}
		for _, b := range s.Blocks {
			payload := b.Content
			if payload == nil {
				payload = content.Payload{}
			}
			sec.Blocks = append(sec.Blocks, BlockDTO{
				ID:      b.ID,
				Type:    b.Type,
				Order:   b.SortIndex,
				Version: b.Version,
				Content: payload,
			})
		}
		out.Sections = append(out.Sections, sec)
	}
	return out
}
