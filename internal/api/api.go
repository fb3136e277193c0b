package api

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tobiaswld/chatdesk/internal/auth"
	"github.com/tobiaswld/chatdesk/internal/chat"
	"github.com/tobiaswld/chatdesk/internal/models"
	"github.com/tobiaswld/chatdesk/internal/ratelimit"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Handler wires the auth and chat services to the HTTP routes.
type Handler struct {
	authService *auth.Service
	chatService *chat.Service
	limiter     ratelimit.Limiter
	logger      *zap.SugaredLogger
	development bool
}

func NewHandler(authService *auth.Service, chatService *chat.Service, limiter ratelimit.Limiter, logger *zap.SugaredLogger, development bool) *Handler {
	return &Handler{
		authService: authService,
		chatService: chatService,
		limiter:     limiter,
		logger:      logger,
		development: development,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	if h.limiter != nil {
		router.Use(h.RateLimit(h.limiter))
	}

	authGroup := router.Group("/auth")
	authGroup.POST("/register", h.handleRegister)
	authGroup.POST("/login", h.handleLogin)
	authGroup.GET("/me", h.requireAuth, h.handleMe)

	chatGroup := router.Group("/chat", h.requireAuth)
	chatGroup.POST("/send", h.handleSend)
	chatGroup.POST("/messages", h.handleMessages)
	chatGroup.GET("/conversations", h.handleConversations)

	router.NoRoute(func(c *gin.Context) {
		h.writeError(c, http.StatusNotFound, codeNotFound, "Not Found", nil)
	})
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type sendRequest struct {
	ChatID   string `json:"chatId" binding:"required"`
	ChatName string `json:"chatName" binding:"required"`
	Message  string `json:"message" binding:"required,min=1,max=2000"`
}

type messagesRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	Limit  int    `json:"limit" binding:"omitempty,min=1,max=100"`
}

type messagePayload struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, codeValidation, "Validation failed", err)
		return
	}

	if !usernamePattern.MatchString(req.Username) {
		h.writeError(c, http.StatusBadRequest, codeValidation, "Username may only contain letters, numbers, and underscores", nil)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			h.writeError(c, http.StatusConflict, codeConflict, "Email already in use", err)
		case errors.Is(err, auth.ErrUsernameTaken):
			h.writeError(c, http.StatusConflict, codeConflict, "Username already in use", err)
		default:
			h.logger.Errorw("register failed", "error", err)
			h.writeError(c, http.StatusInternalServerError, codeInternal, "Failed to register user", err)
		}
		return
	}

	h.logger.Infow("user registered", "userId", result.User.ID, "email", result.User.Email)

	c.JSON(http.StatusCreated, gin.H{
		"id":       result.User.ID,
		"username": result.User.Username,
		"email":    result.User.Email,
		"token":    result.Token,
	})
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, codeValidation, "Validation failed", err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.writeError(c, http.StatusUnauthorized, codeUnauthorized, "Invalid credentials", err)
			return
		}
		h.logger.Errorw("login failed", "error", err)
		h.writeError(c, http.StatusInternalServerError, codeInternal, "Failed to login", err)
		return
	}

	h.logger.Infow("user logged in", "userId", result.User.ID)

	c.JSON(http.StatusOK, gin.H{"token": result.Token})
}

func (h *Handler) handleMe(c *gin.Context) {
	identity := h.identity(c)
	if identity == nil {
		h.writeError(c, http.StatusUnauthorized, codeUnauthorized, "Unauthorized", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       identity.ID,
		"username": identity.Username,
		"email":    identity.Email,
	})
}

func (h *Handler) handleSend(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, codeValidation, "Validation failed", err)
		return
	}

	identity := h.identity(c)
	if identity == nil {
		h.writeError(c, http.StatusUnauthorized, codeUnauthorized, "Unauthorized", nil)
		return
	}

	reply, err := h.chatService.SendMessage(c.Request.Context(), identity.ID, req.ChatID, req.ChatName, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrUpstream) {
			h.writeError(c, upstreamStatus(err), codeUpstream, "Assistant is unavailable", err)
			return
		}
		h.logger.Errorw("send message failed", "userId", identity.ID, "chatId", req.ChatID, "error", err)
		h.writeError(c, http.StatusInternalServerError, codeInternal, "Failed to send message", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *Handler) handleMessages(c *gin.Context) {
	var req messagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, codeValidation, "Validation failed", err)
		return
	}

	identity := h.identity(c)
	if identity == nil {
		h.writeError(c, http.StatusUnauthorized, codeUnauthorized, "Unauthorized", nil)
		return
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), identity.ID, req.ChatID, req.Limit)
	if err != nil {
		h.logger.Errorw("list messages failed", "userId", identity.ID, "chatId", req.ChatID, "error", err)
		h.writeError(c, http.StatusInternalServerError, codeInternal, "Failed to list messages", err)
		return
	}

	payload := make([]messagePayload, 0, len(messages))
	for _, msg := range messages {
		payload = append(payload, messagePayload{
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"chatId": req.ChatID, "messages": payload})
}

func (h *Handler) handleConversations(c *gin.Context) {
	identity := h.identity(c)
	if identity == nil {
		h.writeError(c, http.StatusUnauthorized, codeUnauthorized, "Unauthorized", nil)
		return
	}

	summaries, err := h.chatService.ListConversations(c.Request.Context(), identity.ID)
	if err != nil {
		h.logger.Errorw("list conversations failed", "userId", identity.ID, "error", err)
		h.writeError(c, http.StatusInternalServerError, codeInternal, "Failed to list conversations", err)
		return
	}

	if summaries == nil {
		summaries = []models.ConversationSummary{}
	}

	c.JSON(http.StatusOK, summaries)
}

func (h *Handler) identity(c *gin.Context) *auth.Identity {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil
	}

	identity, ok := value.(*auth.Identity)
	if !ok {
		return nil
	}

	return identity
}
