package service

import (
	"github.com/deppfellow/booking-api/internal/lib/job"
	"github.com/deppfellow/booking-api/internal/lib/notify"
	"github.com/deppfellow/booking-api/internal/model"
	"github.com/deppfellow/booking-api/internal/repository"
	"github.com/deppfellow/booking-api/internal/server"
)

type Services struct {
	Auth    *AuthService
	Job     *job.JobService
	Booking *BookingService
	Roles   model.Roles
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	authService := NewAuthService(s)

	roles := model.NewRoles(
		s.Config.Auth.AdminRoleID,
		s.Config.Auth.SuperAdminRoleID,
		s.Config.Auth.TranslatorRoleID,
	)

	bookingService := NewBookingService(
		repos.Jobs,
		repos.Users,
		s.Job,
		notify.NewClient(s.Config, s.Logger),
		roles,
	)

	return &Services{
		Job:     s.Job,
		Auth:    authService,
		Booking: bookingService,
		Roles:   roles,
	}, nil
}
