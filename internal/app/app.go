package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/nurpe/eforms/internal/config"
	"github.com/nurpe/eforms/internal/db"
	"github.com/nurpe/eforms/internal/excel"
	"github.com/nurpe/eforms/internal/logger"
	"github.com/nurpe/eforms/internal/pdf"
	"github.com/nurpe/eforms/internal/repository"
	"github.com/nurpe/eforms/internal/service"
	"github.com/nurpe/eforms/internal/validation"
)

// Deps holds the wired components shared by the binaries.
type Deps struct {
	Store     repository.Store
	Validator *validation.Validator
	Forms     *service.FormService
	close     func() error
}

func (d *Deps) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}

func NewStore(cfg *config.Config, log zerolog.Logger) (repository.Store, func() error, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		database, err := db.New(cfg, logger.WithComponent(log, "db"))
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := database.DB()
		if err != nil {
			return nil, nil, err
		}
		return repository.NewGormStore(database), sqlDB.Close, nil
	case config.StoreDriverFile:
		log.Info().Str("path", cfg.Store.File).Msg("using file store")
		return repository.NewFileStore(cfg.Store.File), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func Build(cfg *config.Config, log zerolog.Logger) (*Deps, error) {
	store, closeStore, err := NewStore(cfg, log)
	if err != nil {
		return nil, err
	}

	profile, ok := validation.ParseProfile(cfg.Forms.ValidationProfile)
	if !ok {
		return nil, fmt.Errorf("unknown validation profile %q", cfg.Forms.ValidationProfile)
	}
	validator := validation.New(validation.Options{Profile: profile})

	pdfGenerator, err := pdf.NewGenerator(cfg.Report.FontPath)
	if err != nil {
		return nil, fmt.Errorf("init pdf generator: %w", err)
	}

	forms := service.NewFormService(
		store,
		validator,
		pdfGenerator,
		excel.NewGenerator(),
		service.Options{
			Location:    cfg.Report.Location,
			MaxPageSize: cfg.Forms.MaxPageSize,
		},
		logger.WithComponent(log, "forms"),
	)

	return &Deps{Store: store, Validator: validator, Forms: forms, close: closeStore}, nil
}

// EnsureUploadDir creates the attachment directory when it is missing.
func EnsureUploadDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	return nil
}
