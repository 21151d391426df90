package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ticket-backend/internal/logger"
	"ticket-backend/internal/models"
	"ticket-backend/internal/sales"
	"ticket-backend/internal/utils"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// DB is a Sale Ledger backed by a SQL table. Each append is a single INSERT,
// so concurrent writers never lose each other's rows.
type DB struct {
	Bun    *bun.DB
	Logger *logger.Logger
	Now    func() time.Time
}

// Open connects to sqlite or postgres and makes sure the sales table exists.
func Open(ctx context.Context, driver, dsn string, log *logger.Logger) (*DB, error) {
	var bunDB *bun.DB

	switch driver {
	case "sqlite":
		if dsn == "" {
			dsn = "file:sales.db?cache=shared"
		}
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqldb.SetMaxOpenConns(1)
		bunDB = bun.NewDB(sqldb, sqlitedialect.New())
	case "postgres":
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}

	if err := bunDB.PingContext(ctx); err != nil {
		bunDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	d := &DB{Bun: bunDB, Logger: log, Now: time.Now}
	if err := d.Migrate(ctx); err != nil {
		bunDB.Close()
		return nil, err
	}

	log.Info("DATABASE", fmt.Sprintf("✅ %s ledger ready", driver))
	return d, nil
}

func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().
		Model((*models.SaleRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create sales table: %w", err)
	}

	_, err = d.Bun.NewCreateIndex().
		Model((*models.SaleRecord)(nil)).
		Index("sales_payment_reference_idx").
		Column("payment_reference").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create sales index: %w", err)
	}
	return nil
}

func (d *DB) Append(ctx context.Context, sale *models.SaleRecord) error {
	if sale.SaleID == "" {
		sale.SaleID = utils.GenerateSaleID()
	}
	sale.Timestamp = d.Now().UTC()

	if _, err := d.Bun.NewInsert().Model(sale).Exec(ctx); err != nil {
		d.Logger.Error("DATABASE", fmt.Sprintf("Failed to insert sale %s: %v", sale.SaleID, err))
		return fmt.Errorf("%w: %v", sales.ErrLedgerWrite, err)
	}

	d.Logger.LogSale("RECORDED", sale.PaymentReference, fmt.Sprintf("sale %s with %d ticket(s)", sale.SaleID, sale.Quantity))
	return nil
}

func (d *DB) HasReference(ctx context.Context, reference string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.SaleRecord)(nil)).
		Where("payment_reference = ?", reference).
		Exists(ctx)
}

// ListSales returns every sale in append order.
func (d *DB) ListSales(ctx context.Context) ([]models.SaleRecord, error) {
	var records []models.SaleRecord
	err := d.Bun.NewSelect().
		Model(&records).
		Order("id ASC").
		Scan(ctx)
	return records, err
}

func (d *DB) Close() error {
	return d.Bun.Close()
}
