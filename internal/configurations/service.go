package configurations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/pkg/cache"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
)

const cacheKeyPrefix = "config:"

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// UpsertInput creates or replaces one setting. Empty Type and Category fall
// back to string and general.
type UpsertInput struct {
	Key         string
	Value       string
	Type        enums.ConfigType
	Description *string
	Category    enums.ConfigCategory
}

// Service manages settings and serves cached lookups to the rest of the API.
type Service struct {
	repo  *Repository
	cache cache.Store
	logg  *logger.Logger
}

// NewService wires the repository with the injected cache. The logger is optional.
func NewService(repo *Repository, store cache.Store, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("configuration repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("configuration cache required")
	}
	return &Service{repo: repo, cache: store, logg: logg}, nil
}

// List returns settings grouped by category.
func (s *Service) List(ctx context.Context, actor policy.Actor, category *enums.ConfigCategory) (Grouped, error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.Collection(policy.KindConfiguration)); err != nil {
		return nil, err
	}
	if category != nil && !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid category %q", *category))
	}
	rows, err := s.repo.List(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list configurations")
	}
	grouped := Grouped{}
	for i := range rows {
		grouped[rows[i].Category] = append(grouped[rows[i].Category], NewConfigurationDTO(&rows[i]))
	}
	return grouped, nil
}

func (s *Service) Get(ctx context.Context, actor policy.Actor, key string) (*ConfigurationDTO, error) {
	if err := policy.Authorize(actor, policy.ActionRead, policy.Collection(policy.KindConfiguration)); err != nil {
		return nil, err
	}
	cfg, err := s.repo.FindByKey(ctx, strings.TrimSpace(key))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "configuration not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load configuration")
	}
	dto := NewConfigurationDTO(cfg)
	return &dto, nil
}

// Upsert validates and stores a setting, then drops its cached value.
func (s *Service) Upsert(ctx context.Context, actor policy.Actor, input UpsertInput) (*ConfigurationDTO, error) {
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.Collection(policy.KindConfiguration)); err != nil {
		return nil, err
	}

	cfg, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save configuration")
	}
	s.invalidate(ctx, cfg.Key)

	stored, err := s.repo.FindByKey(ctx, cfg.Key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload configuration")
	}
	dto := NewConfigurationDTO(stored)
	return &dto, nil
}

func (s *Service) Delete(ctx context.Context, actor policy.Actor, key string) error {
	if err := policy.Authorize(actor, policy.ActionDelete, policy.Collection(policy.KindConfiguration)); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	deleted, err := s.repo.Delete(ctx, key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete configuration")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "configuration not found")
	}
	s.invalidate(ctx, key)
	return nil
}

// Value reads a setting through the cache. Missing keys report ok=false and
// are not cached. Cache failures fall back to the database.
func (s *Service) Value(ctx context.Context, key string) (string, bool, error) {
	cacheKey := cacheKeyPrefix + key
	if value, ok, err := s.cache.Get(ctx, cacheKey); err != nil {
		s.warn(ctx, "config cache read failed", key, err)
	} else if ok {
		return value, true, nil
	}

	cfg, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load configuration")
	}
	if err := s.cache.Set(ctx, cacheKey, cfg.Value); err != nil {
		s.warn(ctx, "config cache write failed", key, err)
	}
	return cfg.Value, true, nil
}

// CompanyName returns the configured company name or DefaultCompanyName.
func (s *Service) CompanyName(ctx context.Context) (string, error) {
	value, ok, err := s.Value(ctx, KeyCompanyName)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(value) == "" {
		return DefaultCompanyName, nil
	}
	return value, nil
}

// CompanyLogo returns the public logo URL, empty when none was uploaded.
func (s *Service) CompanyLogo(ctx context.Context) (string, error) {
	value, _, err := s.Value(ctx, KeyCompanyLogo)
	return value, err
}

// FeatureEnabled reports whether a features flag is on. Unset flags are on.
func (s *Service) FeatureEnabled(ctx context.Context, key string) (bool, error) {
	value, ok, err := s.Value(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	enabled, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, nil
	}
	return enabled, nil
}

// SeedDefaults inserts the default settings that are not present yet.
func (s *Service) SeedDefaults(ctx context.Context) error {
	if err := s.repo.InsertMissing(ctx, Defaults()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seed default configurations")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, cacheKeyPrefix+key); err != nil {
		s.warn(ctx, "config cache invalidation failed", key, err)
	}
}

func (s *Service) warn(ctx context.Context, msg, key string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"config_key": key, "error": err.Error()})
	s.logg.Warn(ctx, msg)
}

func validateInput(input UpsertInput) (*models.Configuration, error) {
	details := map[string]string{}

	key := strings.TrimSpace(input.Key)
	if key == "" {
		details["key"] = "is required"
	} else if !keyPattern.MatchString(key) {
		details["key"] = "must be lowercase letters, digits and underscores"
	}

	typ := input.Type
	if typ == "" {
		typ = enums.ConfigTypeString
	}
	if !typ.IsValid() {
		details["type"] = "must be one of string, boolean, number, json"
	}

	category := input.Category
	if category == "" {
		category = enums.ConfigCategoryGeneral
	}
	if !category.IsValid() {
		details["category"] = "must be one of general, company, system, features"
	}

	value := input.Value
	if typ.IsValid() {
		normalized, msg := normalizeValue(typ, value)
		if msg != "" {
			details["value"] = msg
		}
		value = normalized
	}

	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid configuration").WithDetails(details)
	}
	return &models.Configuration{
		Key:         key,
		Value:       value,
		Type:        typ,
		Description: input.Description,
		Category:    category,
	}, nil
}

// normalizeValue checks value against typ and returns its canonical form.
func normalizeValue(typ enums.ConfigType, value string) (string, string) {
	switch typ {
	case enums.ConfigTypeBoolean:
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return value, "must be true or false"
		}
		return strconv.FormatBool(parsed), ""
	case enums.ConfigTypeNumber:
		trimmed := strings.TrimSpace(value)
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			return value, "must be a number"
		}
		return trimmed, ""
	case enums.ConfigTypeJSON:
		if !json.Valid([]byte(value)) {
			return value, "must be valid JSON"
		}
	}
	return value, ""
}
