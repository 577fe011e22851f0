package infra

import (
	"fmt"

	"ferreteria/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that
// GORM cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations applies the schema. Also used by integration tests against a
// throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Caja{},
		&model.SesionCaja{},
		&model.MovimientoCaja{},
		&model.Proveedor{},
		&model.Producto{},
		&model.MovimientoStock{},
		&model.Cliente{},
		&model.ConfiguracionFiscal{},
		&model.SerieComprobante{},
		&model.Venta{},
		&model.VentaItem{},
		&model.VentaPago{},
		&model.Comprobante{},
		&model.OrdenCompra{},
		&model.OrdenCompraItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// partial index for the comprobante retry cron query
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_comprobantes_pending_retry') THEN
		    CREATE INDEX idx_comprobantes_pending_retry
		        ON comprobantes (next_retry_at)
		        WHERE estado IN ('pendiente', 'rechazado');
		  END IF;
		END $$`,
		// one open session per caja and per usuario, enforced at the DB
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_sesion_abierta_por_caja') THEN
		    CREATE UNIQUE INDEX idx_sesion_abierta_por_caja
		        ON sesion_cajas (caja_id)
		        WHERE estado = 'ABIERTA';
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_sesion_abierta_por_usuario') THEN
		    CREATE UNIQUE INDEX idx_sesion_abierta_por_usuario
		        ON sesion_cajas (usuario_id)
		        WHERE estado = 'ABIERTA';
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
