package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nexboard/nexboard/internal/auth"
	"github.com/nexboard/nexboard/internal/model"
	"github.com/nexboard/nexboard/internal/service"
	"github.com/nexboard/nexboard/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	users       *service.UserService
	projects    *service.ProjectService
	invitations *service.InvitationService
	messages    *service.MessageService
	links       *service.LinkService

	healthChecker HealthChecker
	realtime      http.Handler

	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger:   logger,
		tokenTTL: 72 * time.Hour,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithRealtimeHandler(rt http.Handler) *Handler {
	h.realtime = rt
	return h
}

func (h *Handler) WithTokenTTL(ttl time.Duration) *Handler {
	h.tokenTTL = ttl
	return h
}

func (h *Handler) WithUserService(users *service.UserService) *Handler {
	h.users = users
	return h
}

func (h *Handler) WithProjectService(projects *service.ProjectService) *Handler {
	h.projects = projects
	return h
}

func (h *Handler) WithInvitationService(invitations *service.InvitationService) *Handler {
	h.invitations = invitations
	return h
}

func (h *Handler) WithMessageService(messages *service.MessageService) *Handler {
	h.messages = messages
	return h
}

func (h *Handler) WithLinkService(links *service.LinkService) *Handler {
	h.links = links
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if h.healthChecker != nil {
		e.GET("/health", h.healthChecker.HealthCheck())
	}

	if h.realtime != nil {
		e.GET("/ws", echo.WrapHandler(h.realtime))
	}

	e.POST("/api/auth/register", h.Register)
	e.POST("/api/auth/login", h.Login)

	secured := e.Group("/api", AuthMiddleware())

	secured.POST("/projects", h.CreateProject)
	secured.GET("/projects", h.ListProjects)
	secured.GET("/projects/:id", h.GetProject)
	secured.POST("/projects/:id/members", h.AddProjectMember)
	secured.POST("/projects/:id/invitations", h.CreateInvitation)
	secured.DELETE("/projects/messages/:messageId", h.AuthorizeMessageDelete)
	secured.DELETE("/projects/links/:linkId", h.AuthorizeLinkDelete)
	secured.GET("/invitations", h.ListInvitations)
	secured.POST("/invitations/:id/accept", h.AcceptInvitation)
	secured.POST("/invitations/:id/decline", h.DeclineInvitation)
}

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (h *Handler) Register(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Username string `json:"username" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("registering user", zap.String("email", req.Email))

	user, err := h.users.Register(e.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		l.Error("failed to register user", zap.String("email", req.Email), zap.Any("error", err))
		return h.transportError(e, err)
	}

	token, tokenErr := auth.GenerateToken(user.ID, user.Email, h.tokenTTL)
	if tokenErr != nil {
		l.Error("failed to issue token", zap.String("user_id", user.ID), zap.Error(tokenErr))
		return h.transportError(e, service.NewError(service.ErrorCodeUnspecified, "failed to issue token"))
	}

	return e.JSON(http.StatusCreated, authResponse{User: user, Token: token})
}

func (h *Handler) Login(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	user, err := h.users.Login(e.Request().Context(), req.Email, req.Password)
	if err != nil {
		l.Warn("login rejected", zap.String("email", req.Email), zap.Any("error", err))
		return h.transportError(e, err)
	}

	token, tokenErr := auth.GenerateToken(user.ID, user.Email, h.tokenTTL)
	if tokenErr != nil {
		l.Error("failed to issue token", zap.String("user_id", user.ID), zap.Error(tokenErr))
		return h.transportError(e, service.NewError(service.ErrorCodeUnspecified, "failed to issue token"))
	}

	return e.JSON(http.StatusOK, authResponse{User: user, Token: token})
}

func (h *Handler) CreateProject(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())
	caller := CurrentUser(e)

	var req struct {
		Name string `json:"name" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("creating project", zap.String("project_name", req.Name), zap.String("user_id", caller.UserID))

	project, err := h.projects.CreateProject(e.Request().Context(), req.Name, caller.UserID)
	if err != nil {
		l.Error("failed to create project", zap.String("project_name", req.Name), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, project)
}

func (h *Handler) ListProjects(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())
	caller := CurrentUser(e)

	projects, err := h.projects.ListProjects(e.Request().Context(), caller.UserID)
	if err != nil {
		l.Error("failed to list projects", zap.String("user_id", caller.UserID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, projects)
}

func (h *Handler) GetProject(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())
	caller := CurrentUser(e)

	projectID := e.Param("id")

	detail, err := h.projects.GetProjectDetail(e.Request().Context(), projectID, caller.UserID)
	if err != nil {
		l.Error("failed to get project", zap.String("project_id", projectID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, detail)
}

func (h *Handler) AddProjectMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())
	caller := CurrentUser(e)

	projectID := e.Param("id")

	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("adding project member",
		zap.String("project_id", projectID),
		zap.String("email", req.Email))

	project, err := h.projects.AddMember(e.Request().Context(), projectID, caller.UserID, req.Email)
	if err != nil {
		l.Error("failed to add member", zap.String("project_id", projectID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, project)
}

func (h *Handler) CreateInvitation(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())
	caller := CurrentUser(e)

	projectID := e.Param("id")

	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("sending invitation",
		zap.String("project_id", projectID),
		zap.String("email", req.Email))

	invitation, err := h.invitations.CreateInvitation(e.Request().Context(), projectID, caller.UserID, req.Email)
	if err != nil {
		l.Error("failed to send invitation", zap.String("project_id", projectID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, invitation)
}

// AuthorizeMessageDelete performs the authorization check only; the deletion
// itself happens on the event channel after this call succeeds.
func (h *Handler) AuthorizeMessageDelete(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())
	caller := CurrentUser(e)

	messageID := e.Param("messageId")

	if err := h.messages.AuthorizeDelete(e.Request().Context(), messageID, caller.UserID); err != nil {
		l.Warn("message deletion not authorized",
			zap.String("message_id", messageID),
			zap.String("user_id", caller.UserID),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "Message deletion authorized"})
}

// AuthorizeLinkDelete is symmetric to AuthorizeMessageDelete.
func (h *Handler) AuthorizeLinkDelete(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())
	caller := CurrentUser(e)

	linkID := e.Param("linkId")

	if err := h.links.AuthorizeDelete(e.Request().Context(), linkID, caller.UserID); err != nil {
		l.Warn("link deletion not authorized",
			zap.String("link_id", linkID),
			zap.String("user_id", caller.UserID),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "Link deletion authorized"})
}

func (h *Handler) ListInvitations(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())
	caller := CurrentUser(e)

	invitations, err := h.invitations.ListPending(e.Request().Context(), caller.Email)
	if err != nil {
		l.Error("failed to list invitations", zap.String("email", caller.Email), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, invitations)
}

func (h *Handler) AcceptInvitation(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())
	caller := CurrentUser(e)

	invitationID := e.Param("id")

	l.Info("accepting invitation", zap.String("invitation_id", invitationID), zap.String("user_id", caller.UserID))

	if err := h.invitations.Accept(e.Request().Context(), invitationID, caller.UserID, caller.Email); err != nil {
		l.Error("failed to accept invitation", zap.String("invitation_id", invitationID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "Invitation accepted successfully"})
}

func (h *Handler) DeclineInvitation(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())
	caller := CurrentUser(e)

	invitationID := e.Param("id")

	l.Info("declining invitation", zap.String("invitation_id", invitationID), zap.String("user_id", caller.UserID))

	if err := h.invitations.Decline(e.Request().Context(), invitationID, caller.Email); err != nil {
		l.Error("failed to decline invitation", zap.String("invitation_id", invitationID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "Invitation declined"})
}

func (h *Handler) decodeRequest(e echo.Context, req any) *service.Error {
	if err := e.Bind(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}

	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, errors.Wrap(err, "request validation failed").Error())
	}
	return nil
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	response := struct {
		Error *service.Error `json:"error"`
	}{Error: err}

	switch err.Code {
	case service.ErrorCodeNotFound:
		return e.JSON(http.StatusNotFound, response)
	case service.ErrorCodeNotAuthorized:
		return e.JSON(http.StatusForbidden, response)
	case service.ErrorCodeBadCredentials:
		return e.JSON(http.StatusUnauthorized, response)
	case service.ErrorCodeInvalidBody, service.ErrorCodeEmailTaken, service.ErrorCodeAlreadyMember,
		service.ErrorCodeInvitationPending, service.ErrorCodeInvitationResolved:
		return e.JSON(http.StatusBadRequest, response)
	default:
		return e.JSON(http.StatusInternalServerError, response)
	}
}
