package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kitrop/workflow/internal/auth"
	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/repository"
)

type userService struct {
	users    repository.UserRepo
	observer UseCaseObserver
}

func NewUserService(users repository.UserRepo, observers ...UseCaseObserver) UserService {
	return &userService{users: users, observer: useCaseObserverOrNoop(observers)}
}

func (s *userService) Create(ctx context.Context, actor domain.Actor, in NewUser) (u *domain.User, err error) {
	done := track(ctx, s.observer, "user.create", map[string]any{"username": in.Username})
	defer func() { done(err) }()

	if err = requireUserAdmin(actor); err != nil {
		return nil, err
	}
	u, err = buildUser(in)
	if err != nil {
		return nil, err
	}
	if err = s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// buildUser validates in and returns a new user with a hashed password.
func buildUser(in NewUser) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{
		ID:             uuid.New().String(),
		Username:       strings.TrimSpace(in.Username),
		FullName:       in.FullName,
		Role:           in.Role,
		CanLoadTasks:   in.CanLoadTasks,
		CanViewReports: in.CanViewReports,
		Color:          domain.CoalesceStr(in.Color, domain.DefaultUserColor),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if !domain.ValidColor(u.Color) {
		return nil, domain.Validationf("invalid color %q", u.Color)
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *userService) Update(ctx context.Context, actor domain.Actor, id string, patch UserPatch) (u *domain.User, err error) {
	done := track(ctx, s.observer, "user.update", map[string]any{"user_id": id})
	defer func() { done(err) }()

	if err = requireUserAdmin(actor); err != nil {
		return nil, err
	}
	u, err = s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.CanLoadTasks != nil {
		u.CanLoadTasks = *patch.CanLoadTasks
	}
	if patch.CanViewReports != nil {
		u.CanViewReports = *patch.CanViewReports
	}
	if patch.Color != nil {
		if !domain.ValidColor(*patch.Color) {
			return nil, domain.Validationf("invalid color %q", *patch.Color)
		}
		u.Color = *patch.Color
	}
	if patch.Password != nil {
		if u.PasswordHash, err = auth.HashPassword(*patch.Password); err != nil {
			return nil, err
		}
	}
	if err = u.Validate(); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now().UTC()
	if err = s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Delete(ctx context.Context, actor domain.Actor, id string) (err error) {
	done := track(ctx, s.observer, "user.delete", map[string]any{"user_id": id})
	defer func() { done(err) }()

	if err = requireUserAdmin(actor); err != nil {
		return err
	}
	if id == actor.UserID {
		return domain.Validationf("cannot delete the acting user")
	}
	return s.users.Delete(ctx, id)
}

func (s *userService) Search(ctx context.Context, query string, managers bool) ([]*domain.User, error) {
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]*domain.User, 0, len(all))
	for _, u := range all {
		if managers && u.Role != domain.RoleAdmin {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), needle) ||
			strings.Contains(strings.ToLower(u.FullName), needle) {
			out = append(out, u)
		}
	}
	return out, nil
}

var errBadCredentials = errors.New("invalid username or password")

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords fail the same way.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" || !auth.CheckPassword(password, u.PasswordHash) {
		return nil, errBadCredentials
	}
	return u, nil
}

// IsBadCredentials reports whether err came from a failed Authenticate.
func IsBadCredentials(err error) bool {
	return errors.Is(err, errBadCredentials)
}

func (s *userService) EnsureAdmin(ctx context.Context, username, password string) (u *domain.User, created bool, err error) {
	u, err = s.users.GetByUsername(ctx, username)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("looking up admin: %w", err)
	}
	u, err = buildUser(NewUser{Username: username, Password: password, Role: domain.RoleAdmin})
	if err != nil {
		return nil, false, err
	}
	if err = s.users.Create(ctx, u); err != nil {
		return nil, false, fmt.Errorf("creating admin: %w", err)
	}
	return u, true, nil
}

// userExists fails with ValidationFailed when a referenced user is missing.
func userExists(ctx context.Context, conn db.DBTX, field, id string) error {
	if id == "" {
		return nil
	}
	_, err := repository.NewSQLiteUserRepo(conn).GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Validationf("%s references unknown user %s", field, id)
	}
	return err
}
