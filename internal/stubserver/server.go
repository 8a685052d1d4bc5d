// Package stubserver implements the copilot backend contract in memory so
// the client can be exercised without the real service. Decisions are canned;
// any non-empty bearer token is accepted.
package stubserver

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sentinelops/copilot/internal/logging"
	"github.com/sentinelops/copilot/internal/types"
)

type conversationRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UpdatedAt string `json:"updated_at"`
	FolderID  string `json:"folder_id,omitempty"`
}

// Server holds the in-memory backend state and its router.
type Server struct {
	router *gin.Engine
	log    *logging.Logger

	mu            sync.Mutex
	folders       []*types.Folder
	conversations []*conversationRecord
}

// New creates a stub server.
func New(log *logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{log: log}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/", s.root)

	authed := router.Group("/", s.requireBearer)
	authed.GET("/data/folders", s.listFolders)
	authed.POST("/data/folders", s.createFolder)
	authed.GET("/data/conversations", s.listConversations)
	authed.POST("/data/conversations", s.createConversation)
	authed.POST("/api/chat", s.chat)

	s.router = router
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("stub backend listening", zap.String("addr", addr))
	return s.router.Run(addr)
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "copilot-stub",
	})
}

// requireBearer rejects requests without a bearer credential. The stub does
// not validate the token itself; that belongs to the real backend.
func (s *Server) requireBearer(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == token || strings.TrimSpace(token) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	c.Next()
}

func (s *Server) listFolders(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Folder, len(s.folders))
	for i, f := range s.folders {
		out[i] = *f
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createFolder(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "folder name required"})
		return
	}

	folder := &types.Folder{
		ID:      uuid.New().String(),
		Name:    strings.TrimSpace(body.Name),
		ChatIDs: []string{},
	}

	s.mu.Lock()
	s.folders = append(s.folders, folder)
	s.mu.Unlock()

	c.JSON(http.StatusOK, folder)
}

func (s *Server) listConversations(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]conversationRecord, len(s.conversations))
	for i, conv := range s.conversations {
		out[i] = *conv
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createConversation(c *gin.Context) {
	var body struct {
		Title    string  `json:"title"`
		FolderID *string `json:"folder_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.Title == "" {
		body.Title = types.DefaultTitle
	}

	conv := &conversationRecord{
		ID:        uuid.New().String(),
		Title:     body.Title,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if body.FolderID != nil {
		conv.FolderID = *body.FolderID
	}

	s.mu.Lock()
	s.conversations = append(s.conversations, conv)
	s.mu.Unlock()

	c.JSON(http.StatusOK, conv)
}

func (s *Server) chat(c *gin.Context) {
	var body struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Mode           string `json:"mode"`
		ConversationID string `json:"conversation_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(body.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages required"})
		return
	}

	prompt := body.Messages[len(body.Messages)-1].Content

	s.mu.Lock()
	for _, conv := range s.conversations {
		if conv.ID == body.ConversationID {
			conv.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			break
		}
	}
	s.mu.Unlock()

	final, steps := cannedDecision(prompt)
	c.JSON(http.StatusOK, gin.H{"final": final, "steps": steps})
}

// cannedDecision fabricates a plausible triage answer for the prompt.
func cannedDecision(prompt string) (*types.FinalDecision, []types.AgentStep) {
	risk := 0.2
	hits := []string{}
	lower := strings.ToLower(prompt)
	for _, keyword := range []string{"breach", "exfil", "ransom", "suspicious", "login"} {
		if strings.Contains(lower, keyword) {
			risk += 0.15
			hits = append(hits, "kw:"+keyword)
		}
	}
	if risk > 1 {
		risk = 1
	}

	final := &types.FinalDecision{
		Summary: "Stub assessment of: " + types.TruncateTitle(prompt),
		Recommendations: []string{
			"Correlate the activity against recent sign-in logs",
			"Confirm whether the affected account has MFA enabled",
		},
		RiskScore: risk,
	}
	steps := []types.AgentStep{
		{
			Agent:      "triage",
			Confidence: 0.82,
			Rationale:  "Keyword screen over the prompt",
			PolicyHits: hits,
		},
		{
			Agent:      "recommender",
			Confidence: 0.74,
			Rationale:  "Canned playbook for development use",
			ToolCalls:  []types.ToolCall{{Name: "playbook.lookup"}},
		},
	}
	return final, steps
}
