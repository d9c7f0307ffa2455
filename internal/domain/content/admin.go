package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type PageInput struct {
	Slug            string
	Title           string
	MetaDescription string
	Status          string
}

type PagePatch struct {
	Title           *string
	MetaDescription *string
	Status          *string
}

type SectionInput struct {
	Type   string
	Status string
	Order  *int
}

type SectionPatch struct {
	Type   *string
	Status *string
}

type BlockInput struct {
	Type    string
	Content Payload
	Order   *int
}

func (s *Store) ListPages(ctx context.Context) ([]Page, error) {
	var pages []Page
	if err := s.db.WithContext(ctx).Order("slug ASC").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

func (s *Store) CreatePage(ctx context.Context, in PageInput) (*Page, error) {
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = MakeSlug(in.Title)
	}
	if !ValidSlug(slug) {
		return nil, fmt.Errorf("%w: slug %q", ErrInvalidInput, in.Slug)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&Page{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	p := Page{Slug: slug, Title: in.Title, MetaDescription: in.MetaDescription, Status: status}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePage changes page metadata. Pages are never deleted; setting the
// status back to draft takes them off the public site.
func (s *Store) UpdatePage(ctx context.Context, id string, patch PagePatch) (*Page, error) {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, fmt.Errorf("%w: title required", ErrInvalidInput)
		}
		updates["title"] = *patch.Title
	}
	if patch.MetaDescription != nil {
		updates["meta_description"] = *patch.MetaDescription
	}
	if patch.Status != nil {
		if !ValidStatus(*patch.Status) {
			return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, *patch.Status)
		}
		updates["status"] = *patch.Status
	}
	return updateAndReload[Page](ctx, s.db, id, updates, "page")
}

func (s *Store) CreateSection(ctx context.Context, pageID string, in SectionInput) (*Section, error) {
	if strings.TrimSpace(in.Type) == "" {
		return nil, fmt.Errorf("%w: section type required", ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}

	var sec Section
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var page Page
		if err := tx.Select("id").First(&page, "id = ?", pageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("page %s: %w", pageID, ErrNotFound)
			}
			return err
		}
		order, err := nextOrder(tx, &Section{}, "page_id = ?", pageID, in.Order)
		if err != nil {
			return err
		}
		sec = Section{PageID: page.ID, Type: in.Type, Status: status, SortIndex: order}
		return tx.Create(&sec).Error
	})
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

func (s *Store) UpdateSection(ctx context.Context, id string, patch SectionPatch) (*Section, error) {
	updates := map[string]interface{}{}
	if patch.Type != nil {
		if strings.TrimSpace(*patch.Type) == "" {
			return nil, fmt.Errorf("%w: section type required", ErrInvalidInput)
		}
		updates["type"] = *patch.Type
	}
	if patch.Status != nil {
		if !ValidStatus(*patch.Status) {
			return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, *patch.Status)
		}
		updates["status"] = *patch.Status
	}
	return updateAndReload[Section](ctx, s.db, id, updates, "section")
}

func (s *Store) CreateBlock(ctx context.Context, sectionID string, in BlockInput) (*Block, error) {
	if strings.TrimSpace(in.Type) == "" {
		return nil, fmt.Errorf("%w: block type required", ErrInvalidInput)
	}

	var b Block
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sec Section
		if err := tx.Select("id").First(&sec, "id = ?", sectionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("section %s: %w", sectionID, ErrNotFound)
			}
			return err
		}
		order, err := nextOrder(tx, &Block{}, "section_id = ?", sectionID, in.Order)
		if err != nil {
			return err
		}
		content := in.Content
		if content == nil {
			content = Payload{}
		}
		b = Block{SectionID: sec.ID, Type: in.Type, Content: content, SortIndex: order}
		return tx.Create(&b).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SeedPage materializes a layout (usually DefaultLayout) as a new draft page
// with its sections and blocks, in one transaction.
func (s *Store) SeedPage(ctx context.Context, layout *Page) (*Page, error) {
	if layout == nil || !ValidSlug(layout.Slug) {
		return nil, fmt.Errorf("%w: layout slug", ErrInvalidInput)
	}

	var created Page
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Page{}).Where("slug = ?", layout.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlugTaken
		}

		created = Page{
			Slug:            layout.Slug,
			Title:           layout.Title,
			MetaDescription: layout.MetaDescription,
			Status:          StatusDraft,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		for _, ls := range layout.Sections {
			sec := Section{
				PageID:    created.ID,
				Type:      ls.Type,
				SortIndex: ls.SortIndex,
				Status:    StatusPublished,
			}
			if err := tx.Create(&sec).Error; err != nil {
				return err
			}
			for _, lb := range ls.Blocks {
				b := Block{
					SectionID: sec.ID,
					Type:      lb.Type,
					Content:   lb.Content.Clone(),
					SortIndex: lb.SortIndex,
				}
				if err := tx.Create(&b).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.LoadPage(ctx, created.Slug)
}

func nextOrder(tx *gorm.DB, model interface{}, where string, parentID string, requested *int) (int, error) {
	if requested != nil {
		if *requested < 0 {
			return 0, fmt.Errorf("%w: negative order", ErrInvalidInput)
		}
		return *requested, nil
	}
	var max sql.NullInt64
	if err := tx.Model(model).Where(where, parentID).Select("MAX(sort_index)").Row().Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}

func updateAndReload[T any](ctx context.Context, db *gorm.DB, id string, updates map[string]interface{}, what string) (*T, error) {
	var row T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&row).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&row, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}
