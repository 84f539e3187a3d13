package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
	"github.com/angelmondragon/backoffice-backend/pkg/security"
)

var emailValidator = validator.New()

// CreateInput is the payload for a new user. Role defaults to salesperson.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     enums.UserRole
	Active   *bool
}

// UpdateInput carries the fields to change; nil fields are left alone.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *enums.UserRole
	Active   *bool
}

// Service manages back-office users. Every operation requires an admin.
type Service interface {
	List(ctx context.Context, actor policy.Actor, filters ListFilters, params pagination.Params) (pagination.Page[UserDTO], error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*UserDTO, error)
	Create(ctx context.Context, actor policy.Actor, input CreateInput) (*UserDTO, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, input UpdateInput) (*UserDTO, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
	EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig) (bool, error)
}

type service struct {
	repo     *Repository
	password config.PasswordConfig
	logg     *logger.Logger
}

func NewService(repo *Repository, password config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo, password: password, logg: logg}, nil
}

func (s *service) List(ctx context.Context, actor policy.Actor, filters ListFilters, params pagination.Params) (pagination.Page[UserDTO], error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.Collection(policy.KindUser)); err != nil {
		return pagination.Page[UserDTO]{}, err
	}
	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return pagination.Page[UserDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	counts, err := s.repo.CountDocuments(ctx, ids)
	if err != nil {
		return pagination.Page[UserDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count user documents")
	}

	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]).WithCounts(counts[rows[i].ID]))
	}
	return pagination.NewPage(items, params, total), nil
}

func (s *service) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*UserDTO, error) {
	if err := policy.Authorize(actor, policy.ActionRead, policy.Collection(policy.KindUser)); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountDocuments(ctx, []uuid.UUID{user.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count user documents")
	}
	return FromModel(user).WithCounts(counts[user.ID]), nil
}

func (s *service) Create(ctx context.Context, actor policy.Actor, input CreateInput) (*UserDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.Collection(policy.KindUser)); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	role := input.Role
	if role == "" {
		role = enums.UserRoleSalesperson
	}

	details := map[string]string{}
	if name == "" {
		details["name"] = "is required"
	}
	if msg := checkEmail(email); msg != "" {
		details["email"] = msg
	}
	if len(input.Password) < security.MinPasswordLength {
		details["password"] = fmt.Sprintf("must be at least %d characters", security.MinPasswordLength)
	}
	if !role.IsValid() {
		details["role"] = "must be admin, manager or salesperson"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user").WithDetails(details)
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       active,
	}
	if err := mapWriteError(s.repo.Create(ctx, user), "create user"); err != nil {
		return nil, err
	}
	return FromModel(user).WithCounts(DocumentCounts{}), nil
}

func (s *service) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, input UpdateInput) (*UserDTO, error) {
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.Collection(policy.KindUser)); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	details := map[string]string{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name == "" {
			details["name"] = "cannot be blank"
		} else {
			user.Name = name
		}
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if msg := checkEmail(email); msg != "" {
			details["email"] = msg
		} else {
			user.Email = email
		}
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			details["role"] = "must be admin, manager or salesperson"
		} else {
			user.Role = *input.Role
		}
	}
	if input.Password != nil && *input.Password != "" {
		if len(*input.Password) < security.MinPasswordLength {
			details["password"] = fmt.Sprintf("must be at least %d characters", security.MinPasswordLength)
		} else {
			hash, err := security.HashPassword(*input.Password, s.password)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
			}
			user.PasswordHash = hash
		}
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user").WithDetails(details)
	}

	if err := mapWriteError(s.repo.Update(ctx, user), "update user"); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountDocuments(ctx, []uuid.UUID{user.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count user documents")
	}
	return FromModel(user).WithCounts(counts[user.ID]), nil
}

func (s *service) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := policy.Authorize(actor, policy.ActionDelete, policy.Collection(policy.KindUser)); err != nil {
		return err
	}
	if id == actor.UserID {
		return pkgerrors.New(pkgerrors.CodeValidation, "you cannot delete your own user")
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	counts, err := s.repo.CountDocuments(ctx, []uuid.UUID{user.ID})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count user documents")
	}
	if c := counts[user.ID]; c.Quotes > 0 || c.Orders > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "user owns quotes or orders").
			WithDetails([]string{fmt.Sprintf("user has %d quotes and %d orders", c.Quotes, c.Orders)})
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user is referenced by other records")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	return nil
}

// EnsureBootstrapAdmin creates the configured administrator when no user
// exists yet. It reports whether a user was created.
func (s *service) EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig) (bool, error) {
	if !cfg.Enabled() {
		return false, nil
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = "Administrator"
	}
	hash, err := security.HashPassword(cfg.AdminPassword, s.password)
	if err != nil {
		return false, err
	}
	admin := &models.User{
		Name:         name,
		Email:        normalizeEmail(cfg.AdminEmail),
		PasswordHash: hash,
		Role:         enums.UserRoleAdmin,
		Active:       true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"user_id": admin.ID.String(), "email": admin.Email})
		s.logg.Info(ctx, "bootstrap admin created")
	}
	return true, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(email string) string {
	if email == "" {
		return "is required"
	}
	if err := emailValidator.Var(email, "email"); err != nil {
		return "must be a valid email"
	}
	return ""
}

func mapWriteError(err error, action string) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
	}
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
