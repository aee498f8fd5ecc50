package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/banterbox/server/domain/entities"
	"github.com/banterbox/server/internal/auth"
	"github.com/banterbox/server/internal/personas"
	"github.com/banterbox/server/internal/websocket"
	"github.com/banterbox/server/usecase"
)

// KeyValidator probes whether an API key can reach the text model.
type KeyValidator func(ctx context.Context, apiKey string) bool

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, mgr *Manager, validateKey KeyValidator, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "banterbox-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/credentials/validate", func(c echo.Context) error {
		return credentialsValidate(c, validateKey, logger)
	})

	v1.GET("/personas", func(c echo.Context) error {
		return c.JSON(http.StatusOK, personas.All())
	})

	v1.POST("/conversations", func(c echo.Context) error {
		return createConversation(c, mgr, logger)
	})

	v1.GET("/conversations/:id", func(c echo.Context) error {
		return getConversation(c, mgr)
	})

	v1.POST("/conversations/:id/pause", hostAction(mgr, func(o *usecase.Orchestrator) { o.Pause() }))
	v1.POST("/conversations/:id/resume", hostAction(mgr, func(o *usecase.Orchestrator) { o.Resume() }))
	v1.POST("/conversations/:id/advance", hostAction(mgr, func(o *usecase.Orchestrator) { o.Advance() }))
	v1.POST("/conversations/:id/stop", hostAction(mgr, func(o *usecase.Orchestrator) { o.Stop() }))

	v1.POST("/conversations/:id/sound", func(c echo.Context) error {
		o, ok := authorizedConversation(c, mgr, auth.RoleHost)
		if !ok {
			return nil
		}
		return c.JSON(http.StatusOK, SoundResponse{SoundOn: o.ToggleSound()})
	})

	v1.POST("/conversations/:id/personas", func(c echo.Context) error {
		return addPersona(c, mgr, logger)
	})

	// WebSocket endpoint. Browsers cannot set headers on websocket
	// upgrades, so the token travels as a query parameter here.
	e.GET("/ws/conversations/:id", func(c echo.Context) error {
		return conversationStream(c, mgr, logger)
	})
}

func credentialsValidate(c echo.Context, validateKey KeyValidator, logger *zap.Logger) error {
	var req ValidateKeyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.APIKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "API key is required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	valid := validateKey(ctx, req.APIKey)
	logger.Info("API key validated", zap.Bool("valid", valid))
	return c.JSON(http.StatusOK, ValidateKeyResponse{Valid: valid})
}

func createConversation(c echo.Context, mgr *Manager, logger *zap.Logger) error {
	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind conversation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	mode := entities.ConversationMode(req.Mode)
	if !entities.ValidMode(mode) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_mode",
			Message: "Mode must be one of: banter, roast, vulgar_roast",
		})
	}

	cast := make([]entities.Persona, 0, len(req.Personas))
	for _, spec := range req.Personas {
		p, err := resolvePersona(spec)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_persona",
				Message: err.Error(),
			})
		}
		cast = append(cast, p)
	}

	o, err := mgr.Start(cast, req.Topic, mode, req.SoundOn)
	if err != nil {
		if errors.Is(err, entities.ErrRosterTooSmall) || errors.Is(err, entities.ErrDuplicatePersona) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_roster",
				Message: err.Error(),
			})
		}
		logger.Error("Failed to start conversation", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "conversation_start_failed",
			Message: "Could not create the chat session",
		})
	}

	hostToken, hostErr := auth.GenerateHostToken(o.ID())
	viewerToken, viewerErr := auth.GenerateViewerToken(o.ID())
	if hostErr != nil || viewerErr != nil {
		logger.Error("Failed to generate conversation tokens",
			zap.NamedError("host", hostErr),
			zap.NamedError("viewer", viewerErr))
		o.Stop()
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate conversation tokens",
		})
	}

	logger.Info("Conversation created",
		zap.String("conversation", o.ID()),
		zap.String("mode", string(mode)),
		zap.Int("personas", len(cast)))
	return c.JSON(http.StatusCreated, CreateConversationResponse{
		ID:          o.ID(),
		HostToken:   hostToken,
		ViewerToken: viewerToken,
	})
}

func getConversation(c echo.Context, mgr *Manager) error {
	o, ok := authorizedConversation(c, mgr, auth.RoleViewer)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, snapshot(o))
}

func addPersona(c echo.Context, mgr *Manager, logger *zap.Logger) error {
	o, ok := authorizedConversation(c, mgr, auth.RoleHost)
	if !ok {
		return nil
	}

	var spec PersonaSpec
	if err := c.Bind(&spec); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	p, err := resolvePersona(spec)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_persona",
			Message: err.Error(),
		})
	}

	switch err := o.AddPersona(p); {
	case err == nil:
		logger.Info("Persona joined conversation",
			zap.String("conversation", o.ID()),
			zap.String("persona", p.ID))
		return c.JSON(http.StatusOK, snapshot(o))
	case errors.Is(err, usecase.ErrConversationStopped), errors.Is(err, entities.ErrDuplicatePersona):
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "persona_rejected",
			Message: err.Error(),
		})
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_persona",
			Message: err.Error(),
		})
	}
}

// conversationStream attaches a websocket viewer to a conversation hub.
func conversationStream(c echo.Context, mgr *Manager, logger *zap.Logger) error {
	id := c.Param("id")
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "Token query parameter is required",
		})
	}
	if _, err := auth.ValidateTokenFor(token, id); err != nil {
		logger.Warn("WebSocket connection rejected", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired token",
		})
	}

	hub, ok := mgr.Hub(id)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Conversation not found",
		})
	}
	return websocket.HandleWebSocket(hub, c, logger)
}

// hostAction wraps a control endpoint that needs a host token.
func hostAction(mgr *Manager, action func(*usecase.Orchestrator)) echo.HandlerFunc {
	return func(c echo.Context) error {
		o, ok := authorizedConversation(c, mgr, auth.RoleHost)
		if !ok {
			return nil
		}
		action(o)
		return c.JSON(http.StatusOK, StateResponse{State: string(o.State())})
	}
}

// authorizedConversation resolves the :id conversation and checks the
// bearer token. Viewer access accepts host tokens too. On failure it
// writes the error response itself and reports ok=false.
func authorizedConversation(c echo.Context, mgr *Manager, minRole string) (*usecase.Orchestrator, bool) {
	id := c.Param("id")

	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "Token is required in Authorization header",
		})
		return nil, false
	}

	claims, err := auth.ValidateTokenFor(token, id)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired token",
		})
		return nil, false
	}
	if minRole == auth.RoleHost && claims.Role != auth.RoleHost {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "A host token is required for this action",
		})
		return nil, false
	}

	o, found := mgr.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Conversation not found",
		})
		return nil, false
	}
	return o, true
}

// resolvePersona turns a spec into a persona, preferring the built-in
// catalog when only an id is given.
func resolvePersona(spec PersonaSpec) (entities.Persona, error) {
	if spec.Name == "" && spec.SystemInstruction == "" {
		if p, ok := personas.ByID(spec.ID); ok {
			return p, nil
		}
		return entities.Persona{}, errors.New("unknown persona id: " + spec.ID)
	}

	p := entities.Persona{
		ID:                spec.ID,
		Name:              spec.Name,
		IconURL:           spec.IconURL,
		SystemInstruction: spec.SystemInstruction,
		VoiceInstruction:  spec.VoiceInstruction,
		Voice:             entities.Voice(spec.Voice),
	}
	if err := p.Validate(); err != nil {
		return entities.Persona{}, err
	}
	return p, nil
}

func snapshot(o *usecase.Orchestrator) ConversationSnapshot {
	msgs := o.Messages()
	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, MessageView{
			ID:        m.ID,
			Text:      m.Text,
			PersonaID: m.PersonaID,
			HasAudio:  m.Audio != nil,
			CreatedAt: m.CreatedAt,
		})
	}
	return ConversationSnapshot{
		ID:            o.ID(),
		Topic:         o.Topic(),
		Mode:          string(o.Mode()),
		State:         string(o.State()),
		Error:         o.ErrorMessage(),
		SoundOn:       o.SoundOn(),
		ActiveSpeaker: o.ActiveSpeaker(),
		Personas:      o.Roster(),
		Messages:      views,
	}
}
