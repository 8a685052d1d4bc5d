// Package session owns the client-side model of conversations and folders
// and keeps it consistent with the backend.
//
// The backend is authoritative for which conversations and folders exist and
// for their metadata; this store reconciles against it by full resync, never
// by incremental merge. Transcripts, decisions, and traces are client-side
// fields the list endpoints do not carry; they live in the in-memory model
// and in the snapshot cache.
//
// All operations are invoked sequentially by one logical actor; the mutex
// follows the manager convention used across the codebase rather than
// enabling a concurrent calling pattern.
package session

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sentinelops/copilot/internal/api"
	"github.com/sentinelops/copilot/internal/cache"
	"github.com/sentinelops/copilot/internal/logging"
	"github.com/sentinelops/copilot/internal/types"
)

var (
	// ErrNoActiveConversation is returned by message operations when no
	// conversation is open; the caller should create one first.
	ErrNoActiveConversation = errors.New("no active conversation")

	// ErrEmptyFolderName is returned by CreateFolder for a blank name.
	ErrEmptyFolderName = errors.New("folder name must not be empty")

	// ErrUnknownFolder is returned by AssignToFolder for an absent target.
	ErrUnknownFolder = errors.New("unknown folder")

	// ErrUnknownConversation is returned by AssignToFolder for an absent
	// conversation.
	ErrUnknownConversation = errors.New("unknown conversation")

	// ErrTurnInFlight rejects a second chat turn for a conversation whose
	// previous turn has not resolved yet. Without this guard assistant
	// turns could append in network-resolution order rather than issue
	// order.
	ErrTurnInFlight = errors.New("chat turn already in flight for this conversation")
)

// FailureNotice is the single synthetic assistant message appended when a
// chat turn fails. The user message it answers is never rolled back.
const FailureNotice = "Something went wrong. Please try again."

// Backend is the slice of the API client the store depends on.
type Backend interface {
	ListFolders(ctx context.Context) ([]types.Folder, error)
	CreateFolder(ctx context.Context, name string) (*types.Folder, error)
	ListConversations(ctx context.Context) ([]api.ConversationRecord, error)
	CreateConversation(ctx context.Context, title, folderID string) (*api.ConversationRecord, error)
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// Renderer produces presentation markup for a decision. Rendering is layered
// on top of the model: a decision is committed the moment it is recorded,
// regardless of how long any reveal animation takes.
type Renderer func(*types.FinalDecision) string

// Store is the session store.
type Store struct {
	backend Backend
	cache   *cache.Store
	log     *logging.Logger
	render  Renderer
	now     func() time.Time

	mu            sync.Mutex
	conversations map[string]*types.Conversation
	order         []string // conversation ids, newest first
	folders       map[string]*types.Folder
	folderOrder   []string // folder ids, newest first
	activeID      string
	inFlight      map[string]bool
}

// New creates a store seeded from the snapshot cache. A missing or corrupt
// snapshot yields an empty model; that is never fatal.
func New(backend Backend, snapshots *cache.Store, log *logging.Logger) *Store {
	s := &Store{
		backend:       backend,
		cache:         snapshots,
		log:           log,
		now:           time.Now,
		conversations: map[string]*types.Conversation{},
		folders:       map[string]*types.Folder{},
		inFlight:      map[string]bool{},
	}

	if snapshots != nil {
		snap, err := snapshots.Load()
		if err != nil {
			log.Debug("starting from empty session cache", zap.Error(err))
		}
		s.conversations = snap.Conversations
		s.order = snap.Order
		s.folders = snap.Folders
		s.folderOrder = snap.FolderOrder
	}
	return s
}

// SetRenderer installs the presentation hook applied to assistant messages.
func (s *Store) SetRenderer(r Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.render = r
}

// Bootstrap replaces the in-memory folders and conversations with the
// backend's authoritative lists. Conversations absent from the fresh response
// are dropped. Conversations are ordered descending by updated_at (missing
// sorts last); folders keep reverse-arrival order, most recent first. The
// most recent conversation becomes active; when none exist the caller is
// expected to create one.
//
// An *api.AuthError here is fatal to the call: the caller must discard the
// cached credential and treat the session as logged out.
func (s *Store) Bootstrap(ctx context.Context) error {
	folders, err := s.backend.ListFolders(ctx)
	if err != nil {
		return err
	}
	records, err := s.backend.ListConversations(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceFoldersLocked(folders)
	s.replaceConversationsLocked(records)

	if len(s.order) > 0 {
		s.activeID = s.order[0]
	} else {
		s.activeID = ""
	}
	return nil
}

// CreateFolder creates a folder on the backend, then re-runs the folder
// resync so in-memory state matches server-assigned ids and ordering exactly.
func (s *Store) CreateFolder(ctx context.Context, name string) (*types.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyFolderName
	}

	created, err := s.backend.CreateFolder(ctx, name)
	if err != nil {
		return nil, err
	}
	folders, err := s.backend.ListFolders(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceFoldersLocked(folders)
	if f, ok := s.folders[created.ID]; ok {
		return f, nil
	}
	return created, nil
}

// CreateConversation creates a conversation on the backend, re-runs the
// conversation resync, then augments the fresh record with the client-side
// fields the list endpoint does not return (empty transcript, no decision,
// no trace) and makes it active.
func (s *Store) CreateConversation(ctx context.Context, title, folderID string) (*types.Conversation, error) {
	if title == "" {
		title = types.DefaultTitle
	}

	created, err := s.backend.CreateConversation(ctx, title, folderID)
	if err != nil {
		return nil, err
	}
	records, err := s.backend.ListConversations(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceConversationsLocked(records)

	conv, ok := s.conversations[created.ID]
	if !ok {
		// The listing lagged behind the create; keep the record usable.
		conv = &types.Conversation{ID: created.ID, Title: created.Title, UpdatedAt: created.UpdatedAt}
		s.conversations[created.ID] = conv
		s.order = append([]string{created.ID}, s.order...)
	}
	conv.Messages = []types.Message{}
	conv.Final = nil
	conv.Steps = nil
	s.activeID = conv.ID
	return conv, nil
}

// OpenConversation makes id the active conversation and returns it. An
// unknown id is a no-op returning nil, tolerating stale links to
// since-deleted conversations.
func (s *Store) OpenConversation(id string) *types.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil
	}
	s.activeID = id
	return conv
}

// AppendUserMessage appends a user message to the active conversation. A
// conversation still carrying the default title takes the message's first 60
// characters as its title. The backend is not called; messages are not
// persisted as separate entities.
func (s *Store) AppendUserMessage(text string) (*types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendUserMessageLocked(text)
}

func (s *Store) appendUserMessageLocked(text string) (*types.Conversation, error) {
	if s.activeID == "" {
		return nil, ErrNoActiveConversation
	}
	conv := s.conversations[s.activeID]
	conv.Messages = append(conv.Messages, types.Message{Role: types.RoleUser, Content: text})
	if conv.Title == types.DefaultTitle {
		conv.Title = types.TruncateTitle(text)
	}
	s.flushLocked()
	return conv, nil
}

// SendChatTurn runs one full turn: the user message is recorded immediately,
// the backend is asked for a decision, and the assistant's answer is recorded
// when the exchange resolves. On failure the user message stays in the
// transcript, FailureNotice is appended as the only assistant-side message,
// and the conversation's decision and trace are left untouched. Only one
// turn may be in flight per conversation; turns on different conversations
// may overlap.
func (s *Store) SendChatTurn(ctx context.Context, text string) (*api.ChatResponse, error) {
	s.mu.Lock()
	if s.activeID == "" {
		s.mu.Unlock()
		return nil, ErrNoActiveConversation
	}
	convID := s.activeID
	if s.inFlight[convID] {
		s.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	s.inFlight[convID] = true
	if _, err := s.appendUserMessageLocked(text); err != nil {
		delete(s.inFlight, convID)
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, convID)
		s.mu.Unlock()
	}()

	resp, err := s.backend.Chat(ctx, api.ChatRequest{
		Messages:       []api.TurnMessage{{Role: types.RoleUser, Content: text}},
		Mode:           "assist",
		ConversationID: convID,
	})
	if err != nil {
		s.mu.Lock()
		if conv, ok := s.conversations[convID]; ok {
			conv.Messages = append(conv.Messages, types.Message{Role: types.RoleAssistant, Content: FailureNotice})
			s.flushLocked()
		}
		s.mu.Unlock()
		return nil, err
	}

	s.RecordAssistantTurn(convID, resp.Final, resp.Steps)
	return resp, nil
}

// RecordAssistantTurn appends the assistant message derived from the
// decision summary, overwrites the conversation's decision and trace with the
// latest values, stamps the activity time, and persists the snapshot. A
// conversation dropped by a concurrent resync is tolerated.
func (s *Store) RecordAssistantTurn(convID string, final *types.FinalDecision, steps []types.AgentStep) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		s.log.Warn("assistant turn for unknown conversation dropped", zap.String("conversation_id", convID))
		return
	}

	msg := types.Message{Role: types.RoleAssistant}
	if final != nil {
		msg.Content = final.Summary
	}
	if s.render != nil {
		msg.Rendered = s.render(final)
	}
	conv.Messages = append(conv.Messages, msg)
	conv.Final = final
	conv.Steps = steps
	conv.Time = s.now().UnixMilli()
	s.flushLocked()
}

// AssignToFolder moves a conversation into a folder, first removing it from
// every folder's list so membership stays single. The assignment is
// client-local: no backend call is made, so it survives reloads through the
// snapshot cache but not a bootstrap on another device.
func (s *Store) AssignToFolder(convID, folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		return ErrUnknownConversation
	}
	target, ok := s.folders[folderID]
	if !ok {
		return ErrUnknownFolder
	}

	for _, f := range s.folders {
		f.ChatIDs = slices.DeleteFunc(f.ChatIDs, func(id string) bool { return id == convID })
	}
	target.ChatIDs = append([]string{convID}, target.ChatIDs...)
	conv.FolderID = folderID
	s.flushLocked()
	return nil
}

// SearchConversations returns a restartable sequence of conversations whose
// title contains query case-insensitively, preserving the current order. An
// empty query yields every conversation. The filter is pure; iterating never
// mutates the model.
func (s *Store) SearchConversations(query string) iter.Seq[*types.Conversation] {
	needle := strings.ToLower(query)
	return func(yield func(*types.Conversation) bool) {
		s.mu.Lock()
		ids := slices.Clone(s.order)
		s.mu.Unlock()

		for _, id := range ids {
			s.mu.Lock()
			conv, ok := s.conversations[id]
			s.mu.Unlock()
			if !ok {
				continue
			}
			if needle != "" && !strings.Contains(strings.ToLower(conv.Title), needle) {
				continue
			}
			if !yield(conv) {
				return
			}
		}
	}
}

// Active returns the active conversation, or nil when none is open.
func (s *Store) Active() *types.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == "" {
		return nil
	}
	return s.conversations[s.activeID]
}

// ActiveID returns the active conversation id, or "".
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Conversation looks up a conversation by id.
func (s *Store) Conversation(id string) (*types.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	return conv, ok
}

// Order returns the conversation ids, newest first.
func (s *Store) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Folders returns the folders in display order, most recently created first.
func (s *Store) Folders() []*types.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Folder, 0, len(s.folderOrder))
	for _, id := range s.folderOrder {
		if f, ok := s.folders[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Empty reports whether the model holds no conversations.
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order) == 0
}

// replaceFoldersLocked swaps in the authoritative folder list, reverse
// arrival order.
func (s *Store) replaceFoldersLocked(folders []types.Folder) {
	s.folders = make(map[string]*types.Folder, len(folders))
	s.folderOrder = make([]string, 0, len(folders))
	for i := range folders {
		f := folders[i]
		if f.ChatIDs == nil {
			f.ChatIDs = []string{}
		}
		s.folders[f.ID] = &f
		s.folderOrder = append([]string{f.ID}, s.folderOrder...)
	}
}

// replaceConversationsLocked swaps in the authoritative conversation list.
// Records also present in the previous model keep their client-side fields
// (transcript, decision, trace, activity time); everything else starts empty.
func (s *Store) replaceConversationsLocked(records []api.ConversationRecord) {
	prev := s.conversations
	s.conversations = make(map[string]*types.Conversation, len(records))
	s.order = make([]string, 0, len(records))

	for _, r := range records {
		conv := &types.Conversation{
			ID:        r.ID,
			Title:     r.Title,
			UpdatedAt: r.UpdatedAt,
			FolderID:  r.FolderID,
			Messages:  []types.Message{},
		}
		if old, ok := prev[r.ID]; ok {
			conv.Messages = old.Messages
			conv.Final = old.Final
			conv.Steps = old.Steps
			conv.Time = old.Time
		}
		s.conversations[r.ID] = conv
		s.order = append(s.order, r.ID)
	}

	// String comparison matches the backend's ISO-8601 timestamps; a
	// missing value compares as "" and sorts last.
	sort.SliceStable(s.order, func(i, j int) bool {
		return s.conversations[s.order[i]].UpdatedAt > s.conversations[s.order[j]].UpdatedAt
	})
}

// flushLocked persists the snapshot. Writes are best-effort: the cache is
// non-authoritative, so a failed write is logged and dropped.
func (s *Store) flushLocked() {
	if s.cache == nil {
		return
	}
	snap := &types.Snapshot{
		Conversations: s.conversations,
		Order:         s.order,
		Folders:       s.folders,
		FolderOrder:   s.folderOrder,
	}
	if err := s.cache.Save(snap); err != nil {
		s.log.Debug("snapshot write dropped", zap.Error(err))
	}
}
