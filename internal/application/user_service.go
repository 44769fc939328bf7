package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
	userDomain "github.com/shareit-rental/service-shareit/internal/domain/user"
)

// CreateUserRequest holds the data needed to register a user.
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// UpdateUserRequest holds a partial user update. Nil fields are left unchanged.
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// UserDTO is the response representation of a user.
type UserDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserService handles user management.
type UserService struct {
	repo   userDomain.UserRepository
	tx     TxManager
	logger *zap.Logger
}

func NewUserService(repo userDomain.UserRepository, tx TxManager, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, tx: tx, logger: logger}
}

func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserDTO, error) {
	u, err := userDomain.NewUser(req.Name, req.Email)
	if err != nil {
		return nil, err
	}

	var created *userDomain.User
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		taken, err := s.repo.ExistsByEmail(ctx, u.Email())
		if err != nil {
			return err
		}
		if taken {
			return domain.NewConflictError("Email already exists: " + u.Email())
		}
		created, err = s.repo.Create(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", zap.Int64("user_id", created.ID()))
	dto := toUserDTO(created)
	return &dto, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*UserDTO, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toUserDTO(u)
	return &dto, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]UserDTO, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	return dtos, nil
}

// UpdateUser applies a partial update; a changed email must stay unique.
func (s *UserService) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*UserDTO, error) {
	var u *userDomain.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if u, err = s.repo.FindByID(ctx, id); err != nil {
			return err
		}
		previousEmail := u.Email()
		if err := u.Update(req.Name, req.Email); err != nil {
			return err
		}
		if u.Email() != previousEmail {
			taken, err := s.repo.ExistsByEmail(ctx, u.Email())
			if err != nil {
				return err
			}
			if taken {
				return domain.NewConflictError("Email already exists: " + u.Email())
			}
		}
		return s.repo.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", zap.Int64("user_id", id))
	dto := toUserDTO(u)
	return &dto, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	}); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id))
	return nil
}

func toUserDTO(u *userDomain.User) UserDTO {
	return UserDTO{ID: u.ID(), Name: u.Name(), Email: u.Email()}
}
