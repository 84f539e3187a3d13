// Package uploads stores the company logo on local disk and publishes its URL
// through the configuration store.
package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/angelmondragon/backoffice-backend/internal/configurations"
	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

var allowedLogoTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

const logoDescription = "Company logo"

// ConfigWriter persists the published logo URL.
type ConfigWriter interface {
	Upsert(ctx context.Context, actor policy.Actor, input configurations.UpsertInput) (*configurations.ConfigurationDTO, error)
}

// LogoDTO describes a stored logo.
type LogoDTO struct {
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// LogoService validates and stores uploaded logos.
type LogoService struct {
	dir      string
	prefix   string
	maxBytes int64
	configs  ConfigWriter
	now      func() time.Time
}

func NewLogoService(cfg config.UploadsConfig, configs ConfigWriter) (*LogoService, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("uploads dir required")
	}
	if cfg.MaxLogoBytes <= 0 {
		return nil, fmt.Errorf("max logo size must be positive")
	}
	if configs == nil {
		return nil, fmt.Errorf("configuration writer required")
	}
	prefix := cfg.PublicPrefix
	if prefix == "" {
		prefix = "/uploads"
	}
	return &LogoService{
		dir:      cfg.Dir,
		prefix:   prefix,
		maxBytes: cfg.MaxLogoBytes,
		configs:  configs,
		now:      time.Now,
	}, nil
}

// WithClock overrides the clock used to name files.
func (s *LogoService) WithClock(now func() time.Time) *LogoService {
	s.now = now
	return s
}

// MaxBytes is the largest accepted logo.
func (s *LogoService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload sniffs the content, writes it as logo-<unixms>.<ext> and points the
// company_logo configuration at it.
func (s *LogoService) Upload(ctx context.Context, actor policy.Actor, src io.Reader) (*LogoDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.Collection(policy.KindLogo)); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}

	data, err := io.ReadAll(io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is too large").
			WithDetails(map[string]string{"file": fmt.Sprintf("must be at most %d bytes", s.maxBytes)})
	}

	detected := mimetype.Detect(data)
	ext, ok := allowedLogoTypes[detected.String()]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported file type").
			WithDetails(map[string]string{"file": "must be a JPEG, PNG or WebP image"})
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create uploads dir")
	}
	name := fmt.Sprintf("logo-%d.%s", s.now().UnixMilli(), ext)
	target := filepath.Join(s.dir, name)
	if err := writeFile(target, data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store logo")
	}

	url := path.Join(s.prefix, name)
	description := logoDescription
	if _, err := s.configs.Upsert(ctx, actor, configurations.UpsertInput{
		Key:         configurations.KeyCompanyLogo,
		Value:       url,
		Type:        enums.ConfigTypeString,
		Description: &description,
		Category:    enums.ConfigCategoryCompany,
	}); err != nil {
		_ = os.Remove(target)
		return nil, err
	}

	return &LogoDTO{
		URL:         url,
		FileName:    name,
		ContentType: detected.String(),
		Size:        int64(len(data)),
	}, nil
}

func writeFile(target string, data []byte) error {
	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, bytes.NewReader(data)); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
