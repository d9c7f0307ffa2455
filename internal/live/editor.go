package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ministry-site/internal/domain/content"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bridge is the persistence side the editor talks to. content.Store
// implements it.
type Bridge interface {
	LoadPage(ctx context.Context, slug string) (*content.Page, error)
	GetBlock(ctx context.Context, id string) (*content.Block, error)
	SaveBlockContent(ctx context.Context, blockID string, payload content.Payload, expectedVersion *int) (*content.Block, error)
	SaveSectionOrder(ctx context.Context, updates []content.OrderUpdate) (int, error)
}

// Identity is the caller of an editor operation.
type Identity struct {
	UserID  uint
	CanEdit bool
}

type Editor struct {
	reg    *Registry
	bridge Bridge
	log    *zap.Logger
}

func NewEditor(reg *Registry, bridge Bridge, log *zap.Logger) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Editor{reg: reg, bridge: bridge, log: log}
}

// Open starts a session for one view of a published page. The session order
// covers every section of the page, drafts included, so an order commit
// never hands out a position a draft already holds. The returned page only
// carries the published sections.
func (e *Editor) Open(ctx context.Context, who Identity, slug string) (*Session, *content.Page, error) {
	if !who.CanEdit {
		return nil, nil, ErrNotAuthorized
	}
	page, err := e.loadPage(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	s := NewSession(uuid.NewString(), who.UserID, page, who.CanEdit)
	if err := e.reg.Create(ctx, s); err != nil {
		return nil, nil, err
	}
	page.Sections = content.PublishedSections(page.Sections)
	e.log.Debug("edit session opened", zap.String("session_id", s.ID), zap.String("slug", slug), zap.Uint("user_id", who.UserID))
	return s, page, nil
}

// loadPage reads a published page with all of its sections.
func (e *Editor) loadPage(ctx context.Context, slug string) (*content.Page, error) {
	p, err := e.bridge.LoadPage(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p.Status != content.StatusPublished {
		return nil, fmt.Errorf("page %q: %w", slug, content.ErrNotFound)
	}
	return p, nil
}

// Session returns the caller's session. Sessions of other users are
// reported as missing.
func (e *Editor) Session(ctx context.Context, who Identity, id string) (*Session, error) {
	s, err := e.reg.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.UserID != who.UserID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (e *Editor) Close(ctx context.Context, who Identity, id string) error {
	if _, err := e.Session(ctx, who, id); err != nil {
		return err
	}
	return e.reg.Delete(ctx, id)
}

// update runs fn under the session lock after checking ownership.
func (e *Editor) update(ctx context.Context, who Identity, id string, fn func(*Session) error) (*Session, error) {
	return e.reg.Update(ctx, id, func(s *Session) error {
		if s.UserID != who.UserID {
			return ErrSessionNotFound
		}
		return fn(s)
	})
}

func (e *Editor) SetEditMode(ctx context.Context, who Identity, id string, on bool) (*Session, error) {
	return e.update(ctx, who, id, func(s *Session) error {
		// the capability can be revoked after the session was opened
		s.CanEdit = s.CanEdit && who.CanEdit
		return s.SetEditMode(on)
	})
}

// PageView reloads the page for rendering. Unless a reorder is pending the
// persisted order is refreshed from the store. Drafts of blocks that are not
// being edited are handed out once.
func (e *Editor) PageView(ctx context.Context, who Identity, id string) (*Session, *content.Page, map[string]string, error) {
	var (
		page   *content.Page
		drafts map[string]string
	)
	s, err := e.update(ctx, who, id, func(s *Session) error {
		p, err := e.loadPage(ctx, s.PageSlug)
		if err != nil {
			return err
		}
		if !s.Unsaved {
			s.Committed = content.SectionIDs(p.Sections)
			s.Working = append([]string(nil), s.Committed...)
		}
		p.Sections = content.PublishedSections(p.Sections)
		page = p
		drafts = map[string]string{}
		for blockID := range s.Drafts {
			if s.EditMode && s.InlineTarget == blockID {
				drafts[blockID] = s.Drafts[blockID]
				continue
			}
			if d, ok := s.TakeDraft(blockID); ok {
				drafts[blockID] = d
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return s, page, drafts, nil
}

func (e *Editor) blockOnPage(ctx context.Context, s *Session, blockID string) (*content.Block, error) {
	b, err := e.bridge.GetBlock(ctx, blockID)
	if err != nil {
		return nil, err
	}
	if !contains(s.Committed, b.SectionID) {
		return nil, ErrNotOnPage
	}
	return b, nil
}

func (e *Editor) BeginInline(ctx context.Context, who Identity, id, blockID string) (*Session, error) {
	return e.update(ctx, who, id, func(s *Session) error {
		b, err := e.blockOnPage(ctx, s, blockID)
		if err != nil {
			return err
		}
		return s.BeginInline(b.ID, b.Type)
	})
}

func (e *Editor) UpdateDraft(ctx context.Context, who Identity, id, blockID, text string) (*Session, error) {
	return e.update(ctx, who, id, func(s *Session) error {
		return s.UpdateDraft(blockID, text)
	})
}

func (e *Editor) CancelInline(ctx context.Context, who Identity, id, blockID string) (*Session, error) {
	return e.update(ctx, who, id, func(s *Session) error {
		return s.CancelInline(blockID)
	})
}

// SaveInline merges the edited text into the block payload under "text"
// and persists it. The text is stored as typed; markup-looking characters
// stay literal and are escaped when the block is rendered. text overrides the stored draft when given. On success
// the inline target is cleared; on failure the target and the text are
// kept so the editor can retry.
func (e *Editor) SaveInline(ctx context.Context, who Identity, id, blockID string, text *string, version *int) (*Session, *content.Block, error) {
	var (
		saved   *content.Block
		saveErr error
	)
	s, err := e.update(ctx, who, id, func(s *Session) error {
		if err := s.requireInline(blockID); err != nil {
			return err
		}
		var value string
		switch {
		case text != nil:
			value = *text
		case s.Drafts[blockID] != "":
			value = s.Drafts[blockID]
		default:
			return ErrNothingToSave
		}

		b, err := e.blockOnPage(ctx, s, blockID)
		if err != nil {
			return err
		}
		saved, saveErr = e.bridge.SaveBlockContent(ctx, b.ID, content.MergeText(b.Content, value), version)
		if saveErr != nil {
			s.Drafts[blockID] = value
			s.LastError = "Erro ao salvar o texto: " + saveErr.Error()
			return nil
		}
		s.InlineSaved(blockID)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if saveErr != nil {
		e.log.Warn("inline save failed", zap.String("session_id", id), zap.String("block_id", blockID), zap.Error(saveErr))
		return s, nil, saveErr
	}
	return s, saved, nil
}

// OpenDialog targets a non-inline block and returns it for the dialog form.
func (e *Editor) OpenDialog(ctx context.Context, who Identity, id, blockID string) (*Session, *content.Block, error) {
	var blk *content.Block
	s, err := e.update(ctx, who, id, func(s *Session) error {
		b, err := e.blockOnPage(ctx, s, blockID)
		if err != nil {
			return err
		}
		if err := s.OpenDialog(b.ID, b.Type); err != nil {
			return err
		}
		blk = b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return s, blk, nil
}

// SaveDialog replaces the whole payload of the dialog target. On failure
// the dialog stays open.
func (e *Editor) SaveDialog(ctx context.Context, who Identity, id, blockID string, payload content.Payload, version *int) (*Session, *content.Block, error) {
	var (
		saved   *content.Block
		saveErr error
	)
	s, err := e.update(ctx, who, id, func(s *Session) error {
		if !s.EditMode {
			return ErrNotEditing
		}
		if !s.DialogOpen || s.DialogTarget != blockID {
			return ErrWrongTarget
		}
		saved, saveErr = e.bridge.SaveBlockContent(ctx, blockID, payload, version)
		if saveErr != nil {
			s.LastError = "Erro ao salvar o bloco: " + saveErr.Error()
			return nil
		}
		s.LastError = ""
		return s.CloseDialog(blockID)
	})
	if err != nil {
		return nil, nil, err
	}
	if saveErr != nil {
		e.log.Warn("dialog save failed", zap.String("session_id", id), zap.String("block_id", blockID), zap.Error(saveErr))
		return s, nil, saveErr
	}
	return s, saved, nil
}

func (e *Editor) CancelDialog(ctx context.Context, who Identity, id, blockID string) (*Session, error) {
	return e.update(ctx, who, id, func(s *Session) error {
		return s.CloseDialog(blockID)
	})
}

func (e *Editor) MoveSection(ctx context.Context, who Identity, id, activeID, overID string) (*Session, error) {
	return e.update(ctx, who, id, func(s *Session) error {
		return s.MoveSection(activeID, overID)
	})
}

// SaveOrder commits the working order in one request. Nothing is sent when
// the working order matches the persisted one, even after moves that undid
// each other. A failure keeps the working order and the unsaved flag; there
// is no retry.
func (e *Editor) SaveOrder(ctx context.Context, who Identity, id string) (*Session, int, error) {
	var (
		updated int
		saveErr error
	)
	s, err := e.update(ctx, who, id, func(s *Session) error {
		if !s.EditMode {
			return ErrNotEditing
		}
		if !s.Unsaved {
			return nil
		}
		if len(content.Diff(s.Committed, s.Working)) == 0 {
			s.OrderSaved()
			return nil
		}
		updated, saveErr = e.bridge.SaveSectionOrder(ctx, s.PendingOrder())
		if saveErr != nil {
			s.OrderFailed(saveErr)
			return nil
		}
		s.OrderSaved()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if saveErr != nil {
		e.log.Warn("section order save failed", zap.String("session_id", id), zap.Error(saveErr))
		return s, 0, saveErr
	}
	return s, updated, nil
}

// ParsePayload decodes raw JSON typed into the dialog's raw editor. Anything
// but a JSON object is rejected with ErrMalformedPayload.
func ParsePayload(raw []byte) (content.Payload, error) {
	var p content.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("%w: %s at offset %d", ErrMalformedPayload, syntaxErr.Error(), syntaxErr.Offset)
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, err.Error())
	}
	if p == nil {
		return nil, fmt.Errorf("%w: payload must be an object", ErrMalformedPayload)
	}
	return p, nil
}
