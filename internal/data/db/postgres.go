package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/resummate/resummate-backend/internal/platform/envutil"
	"github.com/resummate/resummate-backend/internal/platform/logger"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New opens the configured database. DB_DRIVER selects "postgres" (default)
// or "sqlite" for local development; both run the same migrations.
func New(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DatabaseService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	driver := envutil.String("DB_DRIVER", "postgres")
	var (
		gdb *gorm.DB
		err error
	)
	switch driver {
	case "sqlite":
		path := envutil.String("SQLITE_PATH", "resummate.db")
		gdb, err = gorm.Open(sqlite.Open(path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
		}
	case "postgres":
		postgresHost := envutil.String("POSTGRES_HOST", "localhost")
		postgresPort := envutil.String("POSTGRES_PORT", "5432")
		postgresUser := envutil.String("POSTGRES_USER", "postgres")
		postgresPassword := envutil.String("POSTGRES_PASSWORD", "")
		postgresName := envutil.String("POSTGRES_NAME", "resummate")

		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			postgresUser,
			postgresPassword,
			postgresHost,
			postgresPort,
			postgresName,
		)
		gdb, err = gorm.Open(postgres.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}

	return &Service{db: gdb, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}
