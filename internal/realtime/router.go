package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/nexboard/nexboard/internal/model"
	"github.com/nexboard/nexboard/internal/service"
	"github.com/nexboard/nexboard/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// Inbound event names.
const (
	EventProjectJoin = "project:join"
	EventChatMessage = "chat:message"
	EventChatDelete  = "chat:delete"
	EventTaskCreate  = "task:create"
	EventTaskUpdate  = "task:update"
	EventTaskDelete  = "task:delete"
	EventLinkCreate  = "link:create"
	EventLinkDelete  = "link:delete"
)

// Outbound event names.
const (
	EventChatNewMessage     = "chat:new_message"
	EventChatDeletedMessage = "chat:deleted_message"
	EventTaskNewTask        = "task:new_task"
	EventTaskUpdated        = "task:updated"
	EventTaskDeleted        = "task:deleted"
	EventLinkNewLink        = "link:new_link"
	EventLinkDeletedLink    = "link:deleted_link"
	EventError              = "error"
)

const maxDecodeErrorsPerConn = 3

type TaskService interface {
	CreateTask(ctx context.Context, projectID, createdBy, content string) (*model.Task, *service.Error)
	SetTaskCompleted(ctx context.Context, taskID string, isCompleted bool) (*model.Task, *service.Error)
	DeleteTask(ctx context.Context, taskID string) *service.Error
}

type MessageService interface {
	SendMessage(ctx context.Context, projectID, senderID, content string) (*model.Message, *service.Error)
	DeleteMessage(ctx context.Context, messageID string) *service.Error
}

type LinkService interface {
	CreateLink(ctx context.Context, projectID, createdBy, title, url string) (*model.Link, *service.Error)
	DeleteLink(ctx context.Context, linkID string) *service.Error
}

// Router is the single entry point for mutating realtime events: it validates
// and persists each inbound event through the services, then fans the result
// out to the project room. Broadcast strictly follows successful persistence.
type Router struct {
	hub    *Hub
	logger *zap.Logger

	tasks    TaskService
	messages MessageService
	links    LinkService
}

func NewRouter(hub *Hub, logger *zap.Logger) *Router {
	return &Router{
		hub:    hub,
		logger: logger,
	}
}

func (r *Router) WithTaskService(tasks TaskService) *Router {
	r.tasks = tasks
	return r
}

func (r *Router) WithMessageService(messages MessageService) *Router {
	r.messages = messages
	return r
}

func (r *Router) WithLinkService(links LinkService) *Router {
	r.links = links
	return r
}

func (r *Router) Handler() http.Handler {
	return websocket.Handler(r.handleConn)
}

func (r *Router) handleConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	ctx := context.Background()
	if request := conn.Request(); request != nil {
		ctx = request.Context()
	}
	ctx = logger.WithLogger(ctx, r.logger)

	decoder := json.NewDecoder(conn)
	session := newSession(json.NewEncoder(conn))
	defer r.hub.RemoveSession(session)

	decodeErrors := 0

	for {
		var frame Frame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = session.send(EventError, "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		switch frame.Event {
		case EventProjectJoin:
			r.handleJoin(session, frame.Payload)
		case EventChatMessage:
			r.handleChatMessage(ctx, session, frame.Payload)
		case EventChatDelete:
			r.handleChatDelete(ctx, session, frame.Payload)
		case EventTaskCreate:
			r.handleTaskCreate(ctx, session, frame.Payload)
		case EventTaskUpdate:
			r.handleTaskUpdate(ctx, session, frame.Payload)
		case EventTaskDelete:
			r.handleTaskDelete(ctx, session, frame.Payload)
		case EventLinkCreate:
			r.handleLinkCreate(ctx, session, frame.Payload)
		case EventLinkDelete:
			r.handleLinkDelete(ctx, session, frame.Payload)
		default:
			_ = session.send(EventError, "unsupported event")
		}
	}
}

type joinPayload struct {
	ProjectID string `json:"projectId"`
}

func (r *Router) handleJoin(session *Session, raw json.RawMessage) {
	var payload joinPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.ProjectID == "" {
		_ = session.send(EventError, "projectId is required")
		return
	}

	r.hub.Join(payload.ProjectID, session)
	r.logger.Info("session joined project room", zap.String("project_id", payload.ProjectID))
}

type chatMessagePayload struct {
	ProjectID string `json:"projectId"`
	Content   string `json:"content"`
	SenderID  string `json:"senderId"`
}

func (r *Router) handleChatMessage(ctx context.Context, session *Session, raw json.RawMessage) {
	var payload chatMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		_ = session.send(EventError, "invalid chat:message payload")
		return
	}

	message, serviceErr := r.messages.SendMessage(ctx, payload.ProjectID, payload.SenderID, payload.Content)
	if serviceErr != nil {
		r.logger.Warn("failed to send message",
			zap.String("project_id", payload.ProjectID),
			zap.Any("error", serviceErr))
		_ = session.send(EventError, "Failed to send message.")
		return
	}

	r.hub.Broadcast(payload.ProjectID, EventChatNewMessage, message)
}

type chatDeletePayload struct {
	MessageID string `json:"messageId"`
	ProjectID string `json:"projectId"`
}

func (r *Router) handleChatDelete(ctx context.Context, session *Session, raw json.RawMessage) {
	var payload chatDeletePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		_ = session.send(EventError, "invalid chat:delete payload")
		return
	}

	// Known weakness: the event itself carries no authorization. The trust
	// boundary is the DELETE /api/projects/messages/:id call the client must
	// make first; a client that skips it can delete freely.
	r.logger.Warn("executing delete event without event-layer authorization",
		zap.String("event", EventChatDelete),
		zap.String("message_id", payload.MessageID))

	if serviceErr := r.messages.DeleteMessage(ctx, payload.MessageID); serviceErr != nil {
		r.logger.Warn("failed to delete message",
			zap.String("message_id", payload.MessageID),
			zap.Any("error", serviceErr))
		_ = session.send(EventError, "Failed to delete message.")
		return
	}

	r.hub.Broadcast(payload.ProjectID, EventChatDeletedMessage, payload.MessageID)
}

type taskCreatePayload struct {
	ProjectID string `json:"projectId"`
	Content   string `json:"content"`
	CreatedBy string `json:"createdBy"`
}

func (r *Router) handleTaskCreate(ctx context.Context, session *Session, raw json.RawMessage) {
	var payload taskCreatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		_ = session.send(EventError, "invalid task:create payload")
		return
	}

	task, serviceErr := r.tasks.CreateTask(ctx, payload.ProjectID, payload.CreatedBy, payload.Content)
	if serviceErr != nil {
		r.logger.Warn("failed to create task",
			zap.String("project_id", payload.ProjectID),
			zap.Any("error", serviceErr))
		_ = session.send(EventError, "Failed to create task.")
		return
	}

	r.hub.Broadcast(payload.ProjectID, EventTaskNewTask, task)
}

// taskUpdatePayload enumerates the updatable fields explicitly; completion
// toggling is the only supported task update.
type taskUpdatePayload struct {
	TaskID  string `json:"taskId"`
	Updates struct {
		IsCompleted *bool `json:"isCompleted"`
	} `json:"updates"`
}

func (r *Router) handleTaskUpdate(ctx context.Context, session *Session, raw json.RawMessage) {
	var payload taskUpdatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		_ = session.send(EventError, "invalid task:update payload")
		return
	}

	if payload.Updates.IsCompleted == nil {
		_ = session.send(EventError, "updates.isCompleted is required")
		return
	}

	task, serviceErr := r.tasks.SetTaskCompleted(ctx, payload.TaskID, *payload.Updates.IsCompleted)
	if serviceErr != nil {
		r.logger.Warn("failed to update task",
			zap.String("task_id", payload.TaskID),
			zap.Any("error", serviceErr))
		_ = session.send(EventError, "Failed to update task.")
		return
	}

	r.hub.Broadcast(task.ProjectID, EventTaskUpdated, task)
}

type taskDeletePayload struct {
	TaskID    string `json:"taskId"`
	ProjectID string `json:"projectId"`
}

func (r *Router) handleTaskDelete(ctx context.Context, session *Session, raw json.RawMessage) {
	var payload taskDeletePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		_ = session.send(EventError, "invalid task:delete payload")
		return
	}

	if serviceErr := r.tasks.DeleteTask(ctx, payload.TaskID); serviceErr != nil {
		r.logger.Warn("failed to delete task",
			zap.String("task_id", payload.TaskID),
			zap.Any("error", serviceErr))
		_ = session.send(EventError, "Failed to delete task.")
		return
	}

	r.hub.Broadcast(payload.ProjectID, EventTaskDeleted, payload.TaskID)
}

type linkCreatePayload struct {
	ProjectID string `json:"projectId"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	CreatedBy string `json:"createdBy"`
}

func (r *Router) handleLinkCreate(ctx context.Context, session *Session, raw json.RawMessage) {
	var payload linkCreatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		_ = session.send(EventError, "invalid link:create payload")
		return
	}

	link, serviceErr := r.links.CreateLink(ctx, payload.ProjectID, payload.CreatedBy, payload.Title, payload.URL)
	if serviceErr != nil {
		r.logger.Warn("failed to create link",
			zap.String("project_id", payload.ProjectID),
			zap.Any("error", serviceErr))
		_ = session.send(EventError, "Failed to create link.")
		return
	}

	r.hub.Broadcast(payload.ProjectID, EventLinkNewLink, link)
}

type linkDeletePayload struct {
	LinkID    string `json:"linkId"`
	ProjectID string `json:"projectId"`
}

func (r *Router) handleLinkDelete(ctx context.Context, session *Session, raw json.RawMessage) {
	var payload linkDeletePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		_ = session.send(EventError, "invalid link:delete payload")
		return
	}

	// Same trust boundary as chat:delete; see the note there.
	r.logger.Warn("executing delete event without event-layer authorization",
		zap.String("event", EventLinkDelete),
		zap.String("link_id", payload.LinkID))

	if serviceErr := r.links.DeleteLink(ctx, payload.LinkID); serviceErr != nil {
		r.logger.Warn("failed to delete link",
			zap.String("link_id", payload.LinkID),
			zap.Any("error", serviceErr))
		_ = session.send(EventError, "Failed to delete link.")
		return
	}

	r.hub.Broadcast(payload.ProjectID, EventLinkDeletedLink, payload.LinkID)
}
