package ws

import (
	"errors"
	"net/http"
	"strings"

	"uno-service/internal/resolver"
	"uno-service/internal/service/engine"
	pkgAuth "uno-service/pkg/auth"
	"uno-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	hub    *Hub
	engine *engine.Service
	names  *resolver.Resolver
}

func NewHandler(hub *Hub, svc *engine.Service, names *resolver.Resolver) *Handler {
	return &Handler{hub: hub, engine: svc, names: names}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // connectors authenticate by token, not origin
	},
}

// HandleConnectorWS authenticates a connector and attaches it to the hub.
func (h *Handler) HandleConnectorWS(c *gin.Context) {
	token, err := getTokenFromRequest(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	claims, err := pkgAuth.ParseConnectorToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.Log.Info("new connector connection",
		zap.String("connectorID", claims.ConnectorID),
	)
	client := newClient(conn, claims.ConnectorID, h.hub, h.engine, h.names)
	client.run()
}

func getTokenFromRequest(c *gin.Context) (string, error) {
	token := strings.TrimSpace(c.Query("token"))
	if token != "" {
		return token, nil
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = strings.TrimSpace(parts[1])
			if token != "" {
				return token, nil
			}
		}
	}
	return "", errors.New("missing token")
}
