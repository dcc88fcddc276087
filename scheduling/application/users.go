package application

import (
	"context"
	"errors"

	domainUser "github.com/castline/castline/domains/user"
	pkgError "github.com/castline/castline/pkg/error"
	"github.com/castline/castline/scheduling/domain"
	"github.com/castline/castline/validations"
	"github.com/sirupsen/logrus"
)

// UserService registers and resolves users. Registration is an upsert keyed
// by FID so a re-login refreshes the stored signer and profile.
type UserService struct {
	users    domain.UserRepository
	profiles domain.ProfileGateway // optional, enriches sparse registrations
}

func NewUserService(users domain.UserRepository, profiles domain.ProfileGateway) *UserService {
	return &UserService{
		users:    users,
		profiles: profiles,
	}
}

func (s *UserService) Register(ctx context.Context, request domainUser.RegisterRequest) (domain.User, error) {
	if err := validations.ValidateRegisterUser(ctx, request); err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		FID:         request.FID,
		Username:    request.Username,
		DisplayName: request.DisplayName,
		PfpURL:      request.PfpURL,
		SignerUUID:  request.SignerUUID,
	}

	if user.Username == "" && s.profiles != nil {
		profile, err := s.profiles.LookupUserByFID(ctx, request.FID)
		if err != nil {
			logrus.WithError(err).Warnf("[USERS] Profile lookup failed for fid %d", request.FID)
		} else {
			user.Username = profile.Username
			user.DisplayName = profile.DisplayName
			user.PfpURL = profile.PfpURL
		}
	}
	if user.Username == "" {
		return domain.User{}, pkgError.ValidationError("username is required when profile lookup is unavailable")
	}

	stored, err := s.users.Upsert(ctx, user)
	if err != nil {
		return domain.User{}, pkgError.InternalServerError(err.Error())
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  stored.ID,
		"fid":      stored.FID,
		"username": stored.Username,
	}).Info("[USERS] User registered")

	return stored, nil
}

func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, pkgError.NotFoundError("user not found")
		}
		return domain.User{}, pkgError.InternalServerError(err.Error())
	}
	return user, nil
}
