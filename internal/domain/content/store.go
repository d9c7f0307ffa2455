package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store is the persistence side of the page model. Every method is a single
// request against the relational store; multi-row writes run in one
// transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func orderedSections(db *gorm.DB) *gorm.DB { return db.Order("sort_index ASC") }
func orderedBlocks(db *gorm.DB) *gorm.DB { return db.Order("sort_index ASC") }

// LoadPublishedPage returns the page addressed by slug with its published
// sections in ascending order. Draft pages are reported as ErrNotFound so
// anonymous visitors never see them.
func (s *Store) LoadPublishedPage(ctx context.Context, slug string) (*Page, error) {
	var p Page
	err := s.db.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return orderedSections(db.Where("status = ?", StatusPublished))
		}).
		Preload("Sections.Blocks", orderedBlocks).
		First(&p, "slug = ? AND status = ?", slug, StatusPublished).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("page %q: %w", slug, ErrNotFound)
		}
		return nil, err
	}
	p.Sections = PublishedSections(p.Sections)
	return &p, nil
}

// LoadPage returns the page with every section regardless of status, for
// editors.
func (s *Store) LoadPage(ctx context.Context, slug string) (*Page, error) {
	var p Page
	err := s.db.WithContext(ctx).
		Preload("Sections", orderedSections).
		Preload("Sections.Blocks", orderedBlocks).
		First(&p, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("page %q: %w", slug, ErrNotFound)
		}
		return nil, err
	}
	SortSections(p.Sections)
	for i := range p.Sections {
		SortBlocks(p.Sections[i].Blocks)
	}
	return &p, nil
}

func (s *Store) GetBlock(ctx context.Context, id string) (*Block, error) {
	var b Block
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("block %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

// SaveBlockContent overwrites a block payload and touches its updated
// timestamp. With expectedVersion nil the write is last-write-wins; otherwise
// it only applies when the stored version still matches.
func (s *Store) SaveBlockContent(ctx context.Context, blockID string, payload Payload, expectedVersion *int) (*Block, error) {
	if payload == nil {
		payload = Payload{}
	}

	var saved Block
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b Block
		if err := tx.First(&b, "id = ?", blockID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("block %s: %w", blockID, ErrNotFound)
			}
			return err
		}
		if expectedVersion != nil && *expectedVersion != b.Version {
			return fmt.Errorf("block %s at version %d, expected %d: %w", blockID, b.Version, *expectedVersion, ErrVersionConflict)
		}

		res := tx.Model(&b).
			Where("version = ?", b.Version).
			Select("Content", "Version", "UpdatedAt").
			Updates(Block{Content: payload, Version: b.Version + 1, UpdatedAt: time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("block %s: %w", blockID, ErrVersionConflict)
		}

		return tx.First(&saved, "id = ?", blockID).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// SaveSectionOrder applies a full order commit atomically: either every
// listed section takes its new position or none does. All sections must
// belong to the same page. Sections of that page missing from the batch
// (drafts a visitor-side list never saw) keep their relative order and are
// renumbered after the highest listed position, so no two sections of a
// page share an order value.
func (s *Store) SaveSectionOrder(ctx context.Context, updates []OrderUpdate) (int, error) {
	if err := ValidateOrderUpdates(updates); err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		ids = append(ids, u.ID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sections []Section
		if err := tx.Select("id", "page_id").Where("id IN ?", ids).Find(&sections).Error; err != nil {
			return err
		}
		if len(sections) != len(ids) {
			return fmt.Errorf("%d of %d sections exist: %w", len(sections), len(ids), ErrNotFound)
		}
		for _, sec := range sections[1:] {
			if sec.PageID != sections[0].PageID {
				return fmt.Errorf("%w: sections belong to different pages", ErrInvalidOrder)
			}
		}

		var rest []Section
		if err := tx.Select("id", "sort_index").
			Where("page_id = ? AND id NOT IN ?", sections[0].PageID, ids).
			Order("sort_index ASC").Order("id ASC").
			Find(&rest).Error; err != nil {
			return err
		}

		next := 0
		for _, u := range updates {
			if err := tx.Model(&Section{}).
				Where("id = ?", u.ID).
				Update("sort_index", u.Position).Error; err != nil {
				return err
			}
			if u.Position >= next {
				next = u.Position + 1
			}
		}
		for i, sec := range rest {
			if err := tx.Model(&Section{}).
				Where("id = ?", sec.ID).
				Update("sort_index", next+i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(updates), nil
}

// ReorderBlocks rewrites the order of a section's blocks from an ordered id
// list.
func (s *Store) ReorderBlocks(ctx context.Context, sectionID string, blockIDs []string) error {
	if len(blockIDs) == 0 {
		return fmt.Errorf("%w: block_ids required", ErrInvalidOrder)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sec Section
		if err := tx.First(&sec, "id = ?", sectionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("section %s: %w", sectionID, ErrNotFound)
			}
			return err
		}

		for i, blockID := range blockIDs {
			res := tx.Model(&Block{}).
				Where("id = ? AND section_id = ?", blockID, sec.ID).
				Update("sort_index", i)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("block %s in section %s: %w", blockID, sec.ID, ErrNotFound)
			}
		}
		return nil
	})
}
