package repository

import (
	"github.com/deppfellow/booking-api/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Jobs  *JobRepository
	Users *UserRepository
}

// NewRepositories constructs the repository container on the shared pool.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Jobs:  NewJobRepository(s.DB.Pool),
		Users: NewUserRepository(s.DB.Pool),
	}
}
