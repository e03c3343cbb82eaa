// Package fill drives the multi-stage document-fill conversation. The
// server owns the stage machine; the client records the stage the server
// reports and never infers completion from local counters.
package fill

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/session"
	"github.com/officemind/docagent/internal/validate"
)

// Stage is a server-declared step of the fill conversation. The linear
// order is upload -> analyze -> supplementary-materials (optional) ->
// writing-style-selection (optional) -> conversational-qa -> filling ->
// completed.
type Stage string

const (
	StageUpload        Stage = "upload"
	StageAnalyze       Stage = "analyze"
	StageSupplementary Stage = "supplementary-materials"
	StageStyleSelect   Stage = "writing-style-selection"
	StageQA            Stage = "conversational-qa"
	StageFilling       Stage = "filling"
	StageCompleted     Stage = "completed"
)

// Role identifies who produced a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageState tracks the two-phase transcript: a user message is appended
// pending-local before the request and confirmed once the server answers.
// Fallback marks the visible assistant entry inserted when a turn fails.
type MessageState string

const (
	StatePendingLocal MessageState = "pending-local"
	StateConfirmed    MessageState = "confirmed"
	StateFallback     MessageState = "fallback"
)

// Message is one transcript entry.
type Message struct {
	Role  Role
	Text  string
	State MessageState
	At    time.Time
}

// fallbackReply is shown when a conversational turn fails; the turn is
// never dropped silently.
const fallbackReply = "抱歉，本轮回复获取失败，请稍后重试。"

// Conversation is one document-fill session.
type Conversation struct {
	client *api.Client
	store  *session.Store
	logger *slog.Logger

	mu         sync.Mutex
	localID    string // session store id
	serverID   string // server-assigned session id, threaded through every call
	stage      Stage
	transcript []Message
	current    int
	total      int
}

// NewConversation creates a conversation that has not been started yet.
func NewConversation(client *api.Client, store *session.Store, logger *slog.Logger) *Conversation {
	return &Conversation{client: client, store: store, logger: logger}
}

// stageResponse is the stage-carrying payload every fill endpoint returns.
type stageResponse struct {
	Success         bool   `json:"success"`
	SessionID       string `json:"session_id"`
	Stage           string `json:"stage"`
	Response        string `json:"response"`
	CurrentQuestion int    `json:"current_question"`
	TotalQuestions  int    `json:"total_questions"`
	Error           string `json:"error,omitempty"`
}

// Start uploads the document to fill and records the server session id.
func (c *Conversation) Start(ctx context.Context, path string) error {
	ref, err := session.ReadFileRef(path)
	if err != nil {
		return err
	}

	sess := c.store.Create(session.KindFill)
	if err := c.store.AddFile(sess.ID, ref, validate.KindForExtension(ref.Name)); err != nil {
		return err
	}

	var resp stageResponse
	err = c.client.Upload(ctx, "/api/document-fill/start",
		[]api.UploadFile{{FieldName: "file", Name: ref.Name, Content: ref.Content}},
		nil, nil, &resp)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.localID = sess.ID
	c.serverID = resp.SessionID
	c.mu.Unlock()
	c.applyStage(resp)

	c.logger.Info("fill conversation started", "file", ref.Name, "session", resp.SessionID, "stage", resp.Stage)
	return nil
}

// AddMaterial uploads a supplementary material into the conversation.
func (c *Conversation) AddMaterial(ctx context.Context, path string) error {
	sid, err := c.sessionID()
	if err != nil {
		return err
	}

	ref, err := session.ReadFileRef(path)
	if err != nil {
		return err
	}
	if err := c.store.AddFile(c.localID, ref, validate.KindForExtension(ref.Name)); err != nil {
		return err
	}

	var resp stageResponse
	err = c.client.Upload(ctx, "/api/document-fill/add-material",
		[]api.UploadFile{{FieldName: "file", Name: ref.Name, Content: ref.Content}},
		map[string]string{"session_id": sid}, nil, &resp)
	if err != nil {
		return err
	}

	c.applyStage(resp)
	return nil
}

// SetStyle selects a writing-style template for the filled answers.
func (c *Conversation) SetStyle(ctx context.Context, templateID string) error {
	sid, err := c.sessionID()
	if err != nil {
		return err
	}
	if templateID == "" {
		return api.Validationf("缺少写作风格模板ID")
	}

	var resp stageResponse
	err = c.client.Post(ctx, "/api/document-fill/set-style", map[string]string{
		"session_id":  sid,
		"template_id": templateID,
	}, &resp)
	if err != nil {
		return err
	}

	c.applyStage(resp)
	return nil
}

// Respond sends one conversational-QA turn. The user message is appended
// to the transcript optimistically, before server confirmation; on failure
// it stays visible and a fallback assistant message is appended.
func (c *Conversation) Respond(ctx context.Context, text string) (string, error) {
	sid, err := c.sessionID()
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", api.Validationf("消息不能为空")
	}

	c.mu.Lock()
	userIdx := len(c.transcript)
	c.transcript = append(c.transcript, Message{
		Role:  RoleUser,
		Text:  text,
		State: StatePendingLocal,
		At:    time.Now(),
	})
	c.mu.Unlock()

	var resp stageResponse
	err = c.client.Post(ctx, "/api/document-fill/respond", map[string]string{
		"session_id": sid,
		"message":    text,
	}, &resp)

	c.mu.Lock()
	if err != nil {
		c.transcript = append(c.transcript, Message{
			Role:  RoleAssistant,
			Text:  fallbackReply,
			State: StateFallback,
			At:    time.Now(),
		})
		c.mu.Unlock()
		return "", err
	}

	c.transcript[userIdx].State = StateConfirmed
	c.transcript = append(c.transcript, Message{
		Role:  RoleAssistant,
		Text:  resp.Response,
		State: StateConfirmed,
		At:    time.Now(),
	})
	c.mu.Unlock()

	c.applyStage(resp)
	return resp.Response, nil
}

// ResultResponse is the final fill result payload.
type ResultResponse struct {
	Success bool           `json:"success"`
	Stage   string         `json:"stage"`
	Result  map[string]any `json:"result"`
	Error   string         `json:"error,omitempty"`
}

// Result fetches the filled-document result.
func (c *Conversation) Result(ctx context.Context) (*ResultResponse, error) {
	sid, err := c.sessionID()
	if err != nil {
		return nil, err
	}

	var resp ResultResponse
	if err := c.client.Get(ctx, "/api/document-fill/result?session_id="+sid, &resp); err != nil {
		return nil, err
	}
	if resp.Stage != "" {
		c.setStage(Stage(resp.Stage))
	}
	return &resp, nil
}

// Download fetches the filled document as a blob. The filename is chosen
// by the caller.
func (c *Conversation) Download(ctx context.Context, filename string) (*api.Blob, error) {
	sid, err := c.sessionID()
	if err != nil {
		return nil, err
	}
	return c.client.Download(ctx, "/api/document-fill/download?session_id="+sid, filename)
}

// Stage returns the last server-reported stage.
func (c *Conversation) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Progress returns the server-reported question counters. The client never
// derives these locally.
func (c *Conversation) Progress() (current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.total
}

// Transcript returns a copy of the conversation so far.
func (c *Conversation) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// SessionID returns the server session id, or empty before Start.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverID
}

func (c *Conversation) sessionID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.serverID == "" {
		return "", api.Validationf("会话尚未开始，请先上传文档")
	}
	return c.serverID, nil
}

func (c *Conversation) setStage(s Stage) {
	c.mu.Lock()
	c.stage = s
	c.mu.Unlock()
}

// applyStage records the server-reported stage and counters and mirrors
// them into the session store.
func (c *Conversation) applyStage(resp stageResponse) {
	c.mu.Lock()
	if resp.Stage != "" {
		c.stage = Stage(resp.Stage)
	}
	if resp.TotalQuestions > 0 {
		c.current = resp.CurrentQuestion
		c.total = resp.TotalQuestions
	}
	localID := c.localID
	c.mu.Unlock()

	if localID == "" {
		return
	}
	patch := map[string]any{}
	if resp.Response != "" {
		patch["last_response"] = resp.Response
	}
	if resp.TotalQuestions > 0 {
		patch["current_question"] = resp.CurrentQuestion
		patch["total_questions"] = resp.TotalQuestions
	}
	if err := c.store.Update(localID, resp.Stage, patch); err != nil {
		c.logger.Warn("failed to record fill progress", "error", err)
	}
}
