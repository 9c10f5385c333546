package migration

import (
	"github.com/summitgrid/corebank/internal/config"
	"github.com/summitgrid/corebank/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.AutoMigrate {
			if cfg.DBType == "postgres" {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				if err := RunMigrations(sqlDB); err != nil {
					return err
				}
			} else {
				if err := AutoMigrate(conn); err != nil {
					return err
				}
			}
		}

		if cfg.SeedDemo {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
