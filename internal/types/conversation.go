package types

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// DefaultTitle is the placeholder title a conversation carries until the
// first user message replaces it.
const DefaultTitle = "New conversation"

// TitleLimit caps the derived title length, in runes.
const TitleLimit = 60

// Message is one entry in a conversation transcript. Rendered holds
// presentation markup alongside the raw content; the backend never sees it.
type Message struct {
	Role     Role   `json:"role"`
	Content  string `json:"content"`
	Rendered string `json:"rendered_content,omitempty"`
}

// ToolCall records a single tool invocation inside an agent step.
type ToolCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// AgentStep is one unit of the reasoning trace returned with a decision.
type AgentStep struct {
	Agent      string                 `json:"agent"`
	Confidence float64                `json:"confidence"`
	Rationale  string                 `json:"rationale"`
	ToolCalls  []ToolCall             `json:"tool_calls,omitempty"`
	PolicyHits []string               `json:"policy_hits,omitempty"`
	Outputs    map[string]interface{} `json:"outputs,omitempty"`
}

// FinalDecision is the structured answer the backend produces for a chat turn.
type FinalDecision struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	RiskScore       float64  `json:"risk_score"`
}

// Conversation is one chat thread. Messages are append-only and ordered
// chronologically. Final and Steps hold only the most recent decision and
// trace; each assistant turn overwrites them.
type Conversation struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Messages  []Message      `json:"messages"`
	Final     *FinalDecision `json:"final,omitempty"`
	Steps     []AgentStep    `json:"steps,omitempty"`
	FolderID  string         `json:"folder_id,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
	Time      int64          `json:"time,omitempty"`
}

// Folder groups conversations. ChatIDs is ordered newest-assigned first; a
// conversation id appears in at most one folder's list. A FolderID on a
// conversation that no longer resolves is tolerated, not an error.
type Folder struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	ChatIDs []string `json:"chatIds"`
}

// Snapshot is the persisted session cache: the whole in-memory model
// serialized as one blob. It is non-authoritative; the backend owns the
// existence and metadata of conversations and folders.
type Snapshot struct {
	Conversations map[string]*Conversation `json:"conversations"`
	Order         []string                 `json:"order"`
	Folders       map[string]*Folder       `json:"folders"`
	FolderOrder   []string                 `json:"folderOrder"`
}

// EmptySnapshot returns a snapshot with initialized collections.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Conversations: map[string]*Conversation{},
		Order:         []string{},
		Folders:       map[string]*Folder{},
		FolderOrder:   []string{},
	}
}

// TruncateTitle derives a conversation title from message text, capped at
// TitleLimit runes.
func TruncateTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= TitleLimit {
		return text
	}
	return string(runes[:TitleLimit])
}
