package api

import (
	"errors"
	"net/http"

	"uno-service/internal/config"
	"uno-service/internal/middleware"
	"uno-service/internal/service"
	"uno-service/internal/ws"
	pkgAuth "uno-service/pkg/auth"
	appErr "uno-service/pkg/errors"
	"uno-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Hub, services.Engine, services.Resolver)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/unoService/v1")
	{
		v1.POST("/auth/token", handler.IssueConnectorToken)

		protected := v1.Group("/")
		protected.Use(middleware.ConnectorAuthRequired())
		{
			protected.POST("/sessions", handler.CreateSession)
			protected.POST("/sessions/:channelId/cancel", handler.CancelSession)
			protected.POST("/sessions/:channelId/repair", handler.RepairSession)
			protected.GET("/sessions/:channelId", handler.GetSession)
			protected.GET("/guilds/:guildId/leaderboard", handler.GetLeaderboard)
		}
	}

	r.GET("/ws/connector", wsHandler.HandleConnectorWS)
}

type tokenBody struct {
	ConnectorID string `json:"connectorId" binding:"required"`
	Key         string `json:"key" binding:"required"`
}

// IssueConnectorToken exchanges a pre-shared connector key for a JWT.
func (h *Handler) IssueConnectorToken(c *gin.Context) {
	var body tokenBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	valid := false
	for _, key := range config.GlobalConfig.JWT.ConnectorKeys {
		if key != "" && key == body.Key {
			valid = true
			break
		}
	}
	if !valid {
		response.Error(c, http.StatusUnauthorized, "invalid connector key")
		return
	}

	token, err := pkgAuth.GenerateConnectorToken(body.ConnectorID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to issue token")
		return
	}
	response.Success(c, gin.H{"token": token})
}

type createSessionBody struct {
	GuildID   string `json:"guildId" binding:"required"`
	ChannelID string `json:"channelId" binding:"required"`
	HostID    string `json:"hostId" binding:"required"`
	Solo      bool   `json:"solo"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	var body createSessionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.services.Engine.CreateLobby(c.Request.Context(), body.GuildID, body.ChannelID, body.HostID, body.Solo); err != nil {
		respondEngineError(c, err)
		return
	}
	response.SuccessWithMsg(c, gin.H{"channelId": body.ChannelID}, "lobby created")
}

type cancelSessionBody struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *Handler) CancelSession(c *gin.Context) {
	var body cancelSessionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.services.Engine.Cancel(c.Request.Context(), c.Param("channelId"), body.UserID); err != nil {
		respondEngineError(c, err)
		return
	}
	response.SuccessWithMsg(c, nil, "game cancelled")
}

func (h *Handler) RepairSession(c *gin.Context) {
	if err := h.services.Engine.Repair(c.Request.Context(), c.Param("channelId")); err != nil {
		respondEngineError(c, err)
		return
	}
	response.SuccessWithMsg(c, nil, "session repaired")
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := h.services.Store.Get(c.Param("channelId"))
	if !ok {
		respondEngineError(c, appErr.ErrSessionNotFound)
		return
	}
	handSizes := make(map[string]int, len(sess.Hands))
	for id, hand := range sess.Hands {
		handSizes[id] = len(hand)
	}
	response.Success(c, gin.H{
		"state":         sess.State,
		"players":       sess.Players,
		"currentPlayer": sess.CurrentPlayer,
		"currentCard":   sess.CurrentCard.String(),
		"currentColor":  sess.CurrentColor.String(),
		"drawStack":     sess.DrawStackCounter,
		"turn":          sess.Turn,
		"handSizes":     handSizes,
		"settings":      sess.Settings,
	})
}

func (h *Handler) GetLeaderboard(c *gin.Context) {
	entries, err := h.services.Stats.Leaderboard(c.Request.Context(), c.Param("guildId"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	response.Success(c, gin.H{"entries": entries})
}

// respondEngineError maps engine sentinels onto HTTP statuses. Anything
// unrecognized is a 500; rule violations are 4xx with the sentinel text.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErr.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, appErr.ErrSessionExists),
		errors.Is(err, appErr.ErrGameStarted),
		errors.Is(err, appErr.ErrGameNotStarted):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, appErr.ErrNotHost),
		errors.Is(err, appErr.ErrNotInGame):
		response.Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, appErr.ErrNotEnoughPlayers),
		errors.Is(err, appErr.ErrLastPlayer),
		errors.Is(err, appErr.ErrUnknownSetting):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
