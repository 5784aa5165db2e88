// Package postgres is a ports.Store on a single work_items table. Idempotent
// inserts serialise on a transaction-scoped advisory lock keyed by the
// filter's owner, so concurrent Create/Schedule calls for one owner cannot
// both insert.
//
// Tests against a live database run only when WORKQ_DATABASE_URL is set.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"
	"workq/internal/config"
	"workq/internal/domain"
	"workq/internal/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var _ ports.Store = (*Store)(nil)

const columns = `id::text, kind, created, modified, owner_type, owner_id, handler_id,
	is_enabled, status, extra_status, error_message`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool for cfg.URL.
func Connect(ctx context.Context, cfg config.Postgres) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	log.Info().Str("host", pcfg.ConnConfig.Host).Msg("connecting to postgres")
	return New(pool), nil
}

func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres connection failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) FindOne(ctx context.Context, f domain.Filter) (*domain.WorkItem, error) {
	items, err := s.find(ctx, s.pool, f, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ports.ErrNotFound
	}
	return &items[0], nil
}

func (s *Store) FindMany(ctx context.Context, f domain.Filter) ([]domain.WorkItem, error) {
	return s.find(ctx, s.pool, f, 0)
}

func (s *Store) InsertIfAbsent(ctx context.Context, f domain.Filter, defaults domain.WorkItem) (*domain.WorkItem, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", lockKey(f, defaults)); err != nil {
		return nil, false, fmt.Errorf("advisory lock: %w", err)
	}

	existing, err := s.find(ctx, tx, f, 1)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		if err := tx.Commit(ctx); err != nil {
			return nil, false, fmt.Errorf("commit: %w", err)
		}
		return &existing[0], false, nil
	}

	w := defaults
	w.HandlerID = domain.CopyHandlerID(defaults.HandlerID)
	w.ID = uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)
	w.Created, w.Modified = now, now

	_, err = tx.Exec(ctx, `
		INSERT INTO work_items
			(id, kind, created, modified, owner_type, owner_id, handler_id,
			 is_enabled, status, extra_status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		w.ID, string(w.Kind), w.Created, w.Modified, w.Owner.Type, w.Owner.ID, w.HandlerID,
		w.IsEnabled, int16(w.Status), extraParam(w.ExtraStatus), w.ErrorMessage,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert work item: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	return &w, true, nil
}

func (s *Store) Save(ctx context.Context, w *domain.WorkItem, fields ...domain.Field) error {
	if _, err := uuid.Parse(w.ID); err != nil {
		return fmt.Errorf("save %s: %w", w.ID, ports.ErrNotFound)
	}

	var (
		sets []string
		args []any
	)
	for _, f := range fields {
		var v any
		switch f {
		case domain.FieldStatus:
			v = int16(w.Status)
		case domain.FieldErrorMessage:
			v = w.ErrorMessage
		case domain.FieldIsEnabled:
			v = w.IsEnabled
		case domain.FieldExtraStatus:
			v = extraParam(w.ExtraStatus)
		case domain.FieldHandlerID:
			v = w.HandlerID
		default:
			return fmt.Errorf("save %s: unknown field %q", w.ID, f)
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", f, len(args)))
	}
	modified := time.Now().UTC().Truncate(time.Microsecond)
	args = append(args, modified)
	sets = append(sets, fmt.Sprintf("modified = $%d", len(args)))
	args = append(args, w.ID)

	q := fmt.Sprintf("UPDATE work_items SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("save %s: %w", w.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save %s: %w", w.ID, ports.ErrNotFound)
	}
	w.Modified = modified
	return nil
}

func (s *Store) find(ctx context.Context, q querier, f domain.Filter, limit int) ([]domain.WorkItem, error) {
	where, args, ok := buildWhere(f)
	if !ok {
		return nil, nil
	}
	sql := "SELECT " + columns + " FROM work_items" + where + " ORDER BY seq"
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query work items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("scan work items: %w", err)
	}
	return items, nil
}

func scanItem(row pgx.CollectableRow) (domain.WorkItem, error) {
	var (
		w      domain.WorkItem
		kind   string
		status int16
		extra  *int16
	)
	err := row.Scan(&w.ID, &kind, &w.Created, &w.Modified, &w.Owner.Type, &w.Owner.ID,
		&w.HandlerID, &w.IsEnabled, &status, &extra, &w.ErrorMessage)
	if err != nil {
		return w, err
	}
	w.Kind = domain.Kind(kind)
	w.Status = domain.Status(status)
	if extra != nil {
		e := domain.ExtraStatus(*extra)
		w.ExtraStatus = &e
	}
	w.Created = w.Created.UTC()
	w.Modified = w.Modified.UTC()
	return w, nil
}

// buildWhere renders f as a WHERE clause. ok is false when f can match
// nothing, such as a malformed id.
func buildWhere(f domain.Filter) (clause string, args []any, ok bool) {
	var conds []string
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.ID != "" {
		if _, err := uuid.Parse(f.ID); err != nil {
			return "", nil, false
		}
		add("id = $%d", f.ID)
	}
	if f.Kind != "" {
		add("kind = $%d", string(f.Kind))
	}
	if f.Owner != nil {
		add("owner_type = $%d", f.Owner.Type)
		add("owner_id = $%d", f.Owner.ID)
	}
	if f.HandlerID != nil {
		add("handler_id = $%d", *f.HandlerID)
	} else if f.HandlerIDNull {
		conds = append(conds, "handler_id IS NULL")
	}
	if len(f.Statuses) > 0 {
		st := make([]int16, len(f.Statuses))
		for i, s := range f.Statuses {
			st[i] = int16(s)
		}
		add("status = ANY($%d)", st)
	}
	if f.IsEnabled != nil {
		add("is_enabled = $%d", *f.IsEnabled)
	}
	if f.ExtraStatus != nil {
		add("extra_status = $%d", int16(*f.ExtraStatus))
	}

	if len(conds) == 0 {
		return "", nil, true
	}
	return " WHERE " + strings.Join(conds, " AND "), args, true
}

func lockKey(f domain.Filter, defaults domain.WorkItem) string {
	owner := defaults.Owner
	if f.Owner != nil {
		owner = *f.Owner
	}
	kind := f.Kind
	if kind == "" {
		kind = defaults.Kind
	}
	return fmt.Sprintf("workq:%s:%s:%d", kind, owner.Type, owner.ID)
}

func extraParam(e *domain.ExtraStatus) *int16 {
	if e == nil {
		return nil
	}
	v := int16(*e)
	return &v
}
