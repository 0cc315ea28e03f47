package service

import (
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/deppfellow/booking-api/internal/server"
)

// AuthService configures the Clerk SDK with the secret key so bearer
// tokens can be verified.
type AuthService struct {
	server *server.Server
}

func NewAuthService(s *server.Server) *AuthService {
	clerk.SetKey(s.Config.Auth.SecretKey)
	return &AuthService{
		server: s,
	}
}
