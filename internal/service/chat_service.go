package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
	"golang.org/x/sync/errgroup"
)

// FallbackReply is stored as the assistant turn when the coach cannot answer.
const FallbackReply = "죄송합니다 현재 답변을 드리기 어려운 상황입니다. 조금 후에 다시 시도해주시기 바랍니다."

// ChatService runs the essay coaching conversations.
type ChatService struct {
	chats           port.ChatRepository
	apps            port.ApplicationRepository
	gen             port.TextGenerator
	prompts         port.PromptCatalog
	historyLimit    int
	suggestionLimit int
}

// NewChatService creates a chat service. historyLimit bounds the turns sent
// to the model and suggestionLimit the saved events put in its prompt.
func NewChatService(chats port.ChatRepository, apps port.ApplicationRepository, gen port.TextGenerator, prompts port.PromptCatalog, historyLimit, suggestionLimit int) *ChatService {
	return &ChatService{
		chats:           chats,
		apps:            apps,
		gen:             gen,
		prompts:         prompts,
		historyLimit:    historyLimit,
		suggestionLimit: suggestionLimit,
	}
}

// NewSession is the input of CreateSession.
type NewSession struct {
	ApplicationID  int64  `json:"application_id"`
	QuestionID     int64  `json:"question_id"`
	Title          string `json:"title"`
	InitialMessage string `json:"initial_message"`
}

// Exchange is a user message and the reply it produced.
type Exchange struct {
	UserMessage *domain.ChatMessage `json:"user_message"`
	AIResponse  *domain.ChatMessage `json:"ai_response"`
	Fallback    bool                `json:"fallback"`
}

// ListSessions returns the user's sessions with their message counts.
func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]domain.ChatSession, error) {
	return s.chats.ListSessions(ctx, userID)
}

// CreateSession opens a session on a question. Without a title it is named
// after the user's session count. An initial message is answered right away.
func (s *ChatService) CreateSession(ctx context.Context, userID string, in NewSession) (*domain.ChatSession, *Exchange, error) {
	if in.ApplicationID == 0 || in.QuestionID == 0 {
		return nil, nil, port.Invalid("", "application_id and question_id are required")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		n, err := s.chats.CountSessions(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		title = fmt.Sprintf("Chat Session %d", n+1)
	}

	session, err := s.chats.CreateSession(ctx, &domain.ChatSession{
		UserID:        userID,
		ApplicationID: in.ApplicationID,
		QuestionID:    in.QuestionID,
		Title:         title,
	})
	if err != nil {
		return nil, nil, err
	}
	slog.Info("chat session created", "session_id", session.ID, "user_id", userID)

	if strings.TrimSpace(in.InitialMessage) == "" {
		return session, nil, nil
	}
	ex, err := s.exchange(ctx, userID, session, in.InitialMessage, "")
	if err != nil {
		return nil, nil, err
	}
	session.MessageCount += 2
	return session, ex, nil
}

// RenameSession changes a session title.
func (s *ChatService) RenameSession(ctx context.Context, userID string, sessionID int64, title string) (*domain.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, port.Invalid("title", "is required")
	}
	return s.chats.RenameSession(ctx, userID, sessionID, title)
}

// DeleteSession removes a session and its messages.
func (s *ChatService) DeleteSession(ctx context.Context, userID string, sessionID int64) error {
	return s.chats.DeleteSession(ctx, userID, sessionID)
}

// ListMessages returns all messages of an owned session, oldest first.
func (s *ChatService) ListMessages(ctx context.Context, userID string, sessionID int64) ([]domain.ChatMessage, error) {
	if _, err := s.chats.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(ctx, sessionID, 0)
}

// SendMessage stores the user's message and the coach's reply.
// personalStatement is the user's current draft, if any.
func (s *ChatService) SendMessage(ctx context.Context, userID string, sessionID int64, message, personalStatement string) (*Exchange, error) {
	if strings.TrimSpace(message) == "" {
		return nil, port.Invalid("message", "is required")
	}
	session, err := s.chats.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.exchange(ctx, userID, session, message, personalStatement)
}

func (s *ChatService) exchange(ctx context.Context, userID string, session *domain.ChatSession, message, personalStatement string) (*Exchange, error) {
	userMsg, err := s.chats.AddMessage(ctx, session.ID, domain.RoleUser, message)
	if err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	reply, err := s.reply(ctx, userID, session, personalStatement)
	fallback := false
	if err != nil {
		slog.Warn("chat reply failed, using fallback", "session_id", session.ID, "error", err)
		reply, fallback = FallbackReply, true
	}

	aiMsg, err := s.chats.AddMessage(ctx, session.ID, domain.RoleAssistant, reply)
	if err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}
	return &Exchange{UserMessage: userMsg, AIResponse: aiMsg, Fallback: fallback}, nil
}

type coachPrompt struct {
	CurrentQuestion   string
	PersonalStatement string
	Suggestions       []coachSuggestion
}

type coachSuggestion struct {
	Activity     string
	EventName    string
	Contribution int
	Situation    string
	Task         string
	Action       string
	Result       string
}

// reply builds the coach prompt from the session history, the question and
// its saved suggestions, loaded concurrently, and asks the model.
func (s *ChatService) reply(ctx context.Context, userID string, session *domain.ChatSession, personalStatement string) (string, error) {
	var (
		history     []domain.ChatMessage
		question    *domain.Question
		suggestions []domain.Suggestion
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = s.chats.ListMessages(gctx, session.ID, s.historyLimit)
		return err
	})
	g.Go(func() error {
		q, err := s.apps.GetQuestion(gctx, userID, session.QuestionID)
		if err != nil {
			slog.Warn("chat question unavailable", "question_id", session.QuestionID, "error", err)
			return nil
		}
		question = q
		return nil
	})
	g.Go(func() error {
		sg, err := s.apps.ListSuggestions(gctx, userID, session.QuestionID, s.suggestionLimit)
		if err != nil {
			slog.Warn("chat suggestions unavailable", "question_id", session.QuestionID, "error", err)
			return nil
		}
		suggestions = sg
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("load chat context: %w", err)
	}

	data := coachPrompt{PersonalStatement: strings.TrimSpace(personalStatement)}
	if question != nil {
		data.CurrentQuestion = question.Text
	}
	for _, sg := range suggestions {
		cs := coachSuggestion{Activity: sg.Activity}
		if sg.Event != nil {
			cs.EventName = sg.Event.Name
			cs.Contribution = sg.Event.Contribution
			cs.Situation = sg.Event.Situation
			cs.Task = sg.Event.Task
			cs.Action = sg.Event.Action
			cs.Result = sg.Event.Result
		}
		data.Suggestions = append(data.Suggestions, cs)
	}

	system, err := s.prompts.Render(port.TemplateChatCoach, data)
	if err != nil {
		return "", err
	}

	turns := make([]port.ChatTurn, 0, len(history)+1)
	turns = append(turns, port.ChatTurn{Role: domain.RoleSystem, Content: system})
	for _, m := range history {
		turns = append(turns, port.ChatTurn{Role: m.Role, Content: m.Content})
	}

	out, err := s.gen.Chat(ctx, turns)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", port.ErrEmptyParagraph
	}
	return out, nil
}
