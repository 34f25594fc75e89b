package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/medika/medika/internal/activity"
	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (User, error)
	List(ctx context.Context, f ListFilters, page shared.Page) ([]User, int, error)
	Doctors(ctx context.Context) ([]Doctor, error)
	Create(ctx context.Context, u User, passwordHash string) (int64, error)
	Update(ctx context.Context, u User, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

// Service handles user management.
type Service struct {
	repo       RepositoryPort
	authz      shared.Authorizer
	activity   activity.Recorder
	bcryptCost int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, authorizer shared.Authorizer, recorder activity.Recorder) *Service {
	return &Service{repo: repo, authz: authorizer, activity: recorder, bcryptCost: bcrypt.DefaultCost}
}

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// List returns users.
func (s *Service) List(ctx context.Context, f ListFilters, page shared.Page) ([]User, shared.Pagination, error) {
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionViewAny, authz.ResourceUser, nil); err != nil {
		return nil, shared.Pagination{}, err
	}
	items, total, err := s.repo.List(ctx, f, page)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list users: %w", err)
	}
	if items == nil {
		items = []User{}
	}
	return items, shared.NewPagination(page, total), nil
}

// Get returns a user. Everyone may read their own account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionView, authz.ResourceUser, u.Resource()); err != nil {
		return User{}, err
	}
	return u, nil
}

// Doctors lists bookable doctors for any signed-in principal.
func (s *Service) Doctors(ctx context.Context) ([]Doctor, error) {
	if authz.PrincipalFromContext(ctx) == nil {
		return nil, authz.ErrPrincipalMissing
	}
	items, err := s.repo.Doctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	if items == nil {
		items = []Doctor{}
	}
	return items, nil
}

// Create registers an account. Doctor accounts always get a profile.
func (s *Service) Create(ctx context.Context, req CreateRequest) (User, error) {
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionCreate, authz.ResourceUser, nil); err != nil {
		return User{}, err
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	hash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return User{}, err
	}
	u := User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Role:     role.String(),
		IsActive: true,
		Doctor:   profileFor(role, nil, req.Doctor),
	}
	id, err := s.repo.Create(ctx, u, hash)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	activity.BestEffort(ctx, s.activity, "create", "user", id, map[string]any{"email": u.Email, "role": u.Role})
	return s.repo.Get(ctx, id)
}

// Update edits an account. Changing a doctor to another role drops the
// profile; becoming a doctor creates one.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionUpdate, authz.ResourceUser, u.Resource()); err != nil {
		return User{}, err
	}

	changed := make(map[string]any)
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
		changed["name"] = u.Name
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		changed["email"] = u.Email
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
		changed["is_active"] = u.IsActive
	}
	role, _ := authz.ParseRole(u.Role)
	if req.Role != nil {
		role, err = authz.ParseRole(*req.Role)
		if err != nil {
			return User{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
		}
		u.Role = role.String()
		changed["role"] = u.Role
	}
	if req.Role != nil || req.Doctor != nil {
		u.Doctor = profileFor(role, u.Doctor, req.Doctor)
		if req.Doctor != nil {
			changed["doctor"] = true
		}
	}
	hash := ""
	if req.Password != nil {
		if hash, err = HashPassword(*req.Password, s.bcryptCost); err != nil {
			return User{}, err
		}
		changed["password"] = "changed"
	}
	if len(changed) == 0 {
		return u, nil
	}

	if err := s.repo.Update(ctx, u, hash); err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}
	activity.BestEffort(ctx, s.activity, "update", "user", id, changed)
	return s.repo.Get(ctx, id)
}

// Delete removes an account. Nobody may delete their own.
func (s *Service) Delete(ctx context.Context, id int64) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionDelete, authz.ResourceUser, u.Resource()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	activity.BestEffort(ctx, s.activity, "delete", "user", id, map[string]any{"email": u.Email})
	return nil
}

// profileFor returns the doctor profile a user with role should carry.
func profileFor(role authz.Role, current *DoctorProfile, req *DoctorRequest) *DoctorProfile {
	if role != authz.RoleDoctor {
		return nil
	}
	profile := DoctorProfile{}
	if current != nil {
		profile = *current
	}
	if req != nil {
		profile.Specialization = strings.TrimSpace(req.Specialization)
		profile.LicenseNumber = strings.TrimSpace(req.LicenseNumber)
	}
	return &profile
}
