package auth

import (
	"errors"
	"time"

	"uno-service/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// ScopeConnector marks tokens issued to chat-platform connector processes.
const ScopeConnector = "connector"

type Claims struct {
	ConnectorID string `json:"connectorId"`
	Scope       string `json:"scope"`
	jwt.RegisteredClaims
}

func GenerateConnectorToken(connectorID string) (string, error) {
	duration := time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour
	claims := Claims{
		ConnectorID: connectorID,
		Scope:       ScopeConnector,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   connectorID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.GlobalConfig.JWT.Secret))
}

func ParseConnectorToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.GlobalConfig.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Scope != ScopeConnector {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
