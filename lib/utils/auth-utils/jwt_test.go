package authutils

import (
	"testing"

	"shift-tools-backend/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestGetToken(t *testing.T) {
	config.Conf = &config.Configuration{}
	config.Conf.Auth.JWTSecret = "test-secret"
	config.Conf.Auth.JWTExpireInSec = 60

	t.Run("claims check", func(t *testing.T) {
		tokenString, err := GetToken(900, "Staff", true)
		require.NoError(t, err)

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		require.True(t, token.Valid)
		require.Equal(t, "900", claims["sub"])
		require.Equal(t, true, claims["staff"])
		require.Equal(t, "Staff", claims["name"])
	})
	t.Run("wrong secret check", func(t *testing.T) {
		tokenString, err := GetToken(500, "Owner", false)
		require.NoError(t, err)
		_, err = jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return []byte("other"), nil
		})
		require.Error(t, err)
	})
}
