package shipment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type shipmentRow struct {
	bun.BaseModel `bun:"table:shipments,alias:s"`

	ID          string    `bun:"id,pk"`
	Origin      string    `bun:"origin,notnull"`
	Destination string    `bun:"destination,notnull"`
	Weight      string    `bun:"weight,notnull"`
	Item        string    `bun:"item,notnull"`
	Status      string    `bun:"status,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func rowFromRecord(r Record) *shipmentRow {
	return &shipmentRow{
		ID:          r.ID,
		Origin:      r.Origin,
		Destination: r.Destination,
		Weight:      r.Weight,
		Item:        r.Item,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
	}
}

func (r *shipmentRow) record() Record {
	return Record{
		ID:          r.ID,
		Origin:      r.Origin,
		Destination: r.Destination,
		Weight:      r.Weight,
		Item:        r.Item,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

// SQLStore persists records through bun. It serves both postgres and sqlite.
type SQLStore struct {
	db  *bun.DB
	now func() time.Time
}

var _ Store = (*SQLStore)(nil)

func OpenPostgres(ctx context.Context, dsn string, migrate bool) (*SQLStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return newSQLStore(ctx, bun.NewDB(sqldb, pgdialect.New()), migrate)
}

func OpenSQLite(ctx context.Context, dsn string, migrate bool) (*SQLStore, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite allows a single writer; an in-memory database also lives on one connection.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	return newSQLStore(ctx, bun.NewDB(sqldb, sqlitedialect.New()), migrate)
}

// NewSQLStore wraps an existing bun.DB.
func NewSQLStore(db *bun.DB) *SQLStore {
	return &SQLStore{db: db, now: nowUTC}
}

func newSQLStore(ctx context.Context, db *bun.DB, migrate bool) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrStoreRead, err)
	}
	store := NewSQLStore(db)
	if migrate {
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return store, nil
}

// Migrate creates the shipments table and its listing index. Idempotent.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*shipmentRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create shipments table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*shipmentRow)(nil)).
		Index("shipments_created_at_idx").
		IfNotExists().
		Column("created_at", "id").
		Exec(ctx); err != nil {
		return fmt.Errorf("create shipments index: %w", err)
	}
	return nil
}

func (s *SQLStore) Create(ctx context.Context, in NewRecord) (Record, error) {
	rec, err := in.build(s.now())
	if err != nil {
		return Record{}, fmt.Errorf("%w: assign id: %v", ErrStoreWrite, err)
	}
	if _, err := s.db.NewInsert().Model(rowFromRecord(rec)).Exec(ctx); err != nil {
		return Record{}, fmt.Errorf("%w: insert: %v", ErrStoreWrite, err)
	}
	return rec, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	var rows []shipmentRow
	if err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("s.created_at DESC, s.id DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: select: %v", ErrStoreRead, err)
	}

	out := make([]Record, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].record())
	}
	return out, nil
}

func (s *SQLStore) UpdateStatus(ctx context.Context, id string, status string) (Record, error) {
	id, status, err := validateStatus(id, status)
	if err != nil {
		return Record{}, err
	}

	res, err := s.db.NewUpdate().
		Model((*shipmentRow)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("%w: update: %v", ErrStoreWrite, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Record{}, fmt.Errorf("%w: id=%s", ErrRecordNotFound, id)
	}

	row := new(shipmentRow)
	if err := s.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return Record{}, fmt.Errorf("%w: reload: %v", ErrStoreRead, err)
	}
	return row.record(), nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
