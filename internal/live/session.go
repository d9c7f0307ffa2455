// Package live keeps the server side of a page editing session: the
// edit-mode flag, the inline and dialog targets, and the working section
// order of one editor page view.
package live

import (
	"errors"
	"time"

	"ministry-site/internal/domain/content"
)

var (
	ErrSessionNotFound   = errors.New("edit session not found")
	ErrNotAuthorized     = errors.New("identity may not edit this site")
	ErrNotEditing        = errors.New("edit mode is off")
	ErrTargetBusy        = errors.New("another block is being edited")
	ErrNotInlineEditable = errors.New("block is not inline editable")
	ErrUseInlineEditor   = errors.New("block is edited inline")
	ErrWrongTarget       = errors.New("block is not the active edit target")
	ErrNotOnPage         = errors.New("not on this page")
	ErrNothingToSave     = errors.New("no text to save")
	ErrMalformedPayload  = errors.New("malformed block payload")
)

// Session is one editor page view. All state transitions go through its
// methods so that leaving edit mode can never strand a target.
type Session struct {
	ID       string `json:"id" msgpack:"id"`
	UserID   uint   `json:"user_id" msgpack:"user_id"`
	PageID   string `json:"page_id" msgpack:"page_id"`
	PageSlug string `json:"page_slug" msgpack:"page_slug"`
	CanEdit  bool   `json:"can_edit" msgpack:"can_edit"`

	EditMode     bool   `json:"edit_mode" msgpack:"edit_mode"`
	InlineTarget string `json:"inline_target,omitempty" msgpack:"inline_target"`
	DialogOpen   bool   `json:"dialog_open" msgpack:"dialog_open"`
	DialogTarget string `json:"dialog_target,omitempty" msgpack:"dialog_target"`

	// Committed is the last persisted section order; Working is the local
	// permutation shown while editing.
	Committed []string `json:"committed_order" msgpack:"committed"`
	Working   []string `json:"working_order" msgpack:"working"`
	Unsaved   bool     `json:"unsaved" msgpack:"unsaved"`

	Drafts    map[string]string `json:"drafts,omitempty" msgpack:"drafts"`
	LastError string            `json:"last_error,omitempty" msgpack:"last_error"`

	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`
}

// NewSession starts a session in the "not editing" state over the given
// persisted section order.
func NewSession(id string, userID uint, page *content.Page, canEdit bool) *Session {
	order := content.SectionIDs(page.Sections)
	now := time.Now()
	return &Session{
		ID:        id,
		UserID:    userID,
		PageID:    page.ID,
		PageSlug:  page.Slug,
		CanEdit:   canEdit,
		Committed: order,
		Working:   append([]string(nil), order...),
		Drafts:    map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Clone() *Session {
	c := *s
	c.Committed = append([]string(nil), s.Committed...)
	c.Working = append([]string(nil), s.Working...)
	c.Drafts = make(map[string]string, len(s.Drafts))
	for k, v := range s.Drafts {
		c.Drafts[k] = v
	}
	return &c
}

// SetEditMode toggles edit mode. Turning it off clears both targets.
func (s *Session) SetEditMode(on bool) error {
	if on {
		if !s.CanEdit {
			return ErrNotAuthorized
		}
		s.EditMode = true
		return nil
	}
	s.EditMode = false
	s.InlineTarget = ""
	s.DialogOpen = false
	s.DialogTarget = ""
	return nil
}

func (s *Session) idle() bool {
	return s.InlineTarget == "" && !s.DialogOpen
}

// BeginInline makes blockID the inline target. Repeating it for the current
// target is a no-op.
func (s *Session) BeginInline(blockID, blockType string) error {
	if !s.EditMode {
		return ErrNotEditing
	}
	if !content.InlineEditable(blockType) {
		return ErrNotInlineEditable
	}
	if s.InlineTarget == blockID {
		return nil
	}
	if !s.idle() {
		return ErrTargetBusy
	}
	s.InlineTarget = blockID
	return nil
}

// UpdateDraft records the in-progress text of the active inline target.
func (s *Session) UpdateDraft(blockID, text string) error {
	if err := s.requireInline(blockID); err != nil {
		return err
	}
	if s.Drafts == nil {
		s.Drafts = map[string]string{}
	}
	s.Drafts[blockID] = text
	return nil
}

// CancelInline drops the draft and clears the inline target without
// persisting anything.
func (s *Session) CancelInline(blockID string) error {
	if err := s.requireInline(blockID); err != nil {
		return err
	}
	delete(s.Drafts, blockID)
	s.InlineTarget = ""
	return nil
}

// InlineSaved is applied after the block content was persisted.
func (s *Session) InlineSaved(blockID string) {
	delete(s.Drafts, blockID)
	if s.InlineTarget == blockID {
		s.InlineTarget = ""
	}
	s.LastError = ""
}

func (s *Session) requireInline(blockID string) error {
	if !s.EditMode {
		return ErrNotEditing
	}
	if s.InlineTarget == "" || s.InlineTarget != blockID {
		return ErrWrongTarget
	}
	return nil
}

// TakeDraft returns a leftover draft for display while not editing it and
// forgets it, so it is shown at most once.
func (s *Session) TakeDraft(blockID string) (string, bool) {
	if s.EditMode && s.InlineTarget == blockID {
		return "", false
	}
	d, ok := s.Drafts[blockID]
	if ok {
		delete(s.Drafts, blockID)
	}
	return d, ok
}

// OpenDialog targets a non-inline block with the full editing dialog.
func (s *Session) OpenDialog(blockID, blockType string) error {
	if !s.EditMode {
		return ErrNotEditing
	}
	if content.InlineEditable(blockType) {
		return ErrUseInlineEditor
	}
	if s.DialogOpen && s.DialogTarget == blockID {
		return nil
	}
	if !s.idle() {
		return ErrTargetBusy
	}
	s.DialogOpen = true
	s.DialogTarget = blockID
	return nil
}

// CloseDialog ends the dialog, after a save or a cancel.
func (s *Session) CloseDialog(blockID string) error {
	if !s.EditMode {
		return ErrNotEditing
	}
	if !s.DialogOpen || s.DialogTarget != blockID {
		return ErrWrongTarget
	}
	s.DialogOpen = false
	s.DialogTarget = ""
	return nil
}

// MoveSection moves activeID to overID's position in the working order.
// Any effective move marks the order unsaved; nothing is persisted.
func (s *Session) MoveSection(activeID, overID string) error {
	if !s.EditMode {
		return ErrNotEditing
	}
	if !contains(s.Working, activeID) || !contains(s.Working, overID) {
		return ErrNotOnPage
	}
	next, moved := content.MoveByID(s.Working, activeID, overID)
	if moved {
		s.Working = next
		s.Unsaved = true
	}
	return nil
}

// VisibleOrder is the section order to render: the working order while
// editing, the persisted order otherwise.
func (s *Session) VisibleOrder() []string {
	if s.EditMode {
		return append([]string(nil), s.Working...)
	}
	return append([]string(nil), s.Committed...)
}

// PendingOrder is the full commit payload for the working order.
func (s *Session) PendingOrder() []content.OrderUpdate {
	return content.OrderUpdates(s.Working)
}

// OrderSaved records a successful commit of the working order.
func (s *Session) OrderSaved() {
	s.Committed = append([]string(nil), s.Working...)
	s.Unsaved = false
	s.LastError = ""
}

// OrderFailed keeps the working order and the unsaved flag and remembers the
// failure for display.
func (s *Session) OrderFailed(err error) {
	s.LastError = "Erro ao salvar a nova ordem: " + err.Error()
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
