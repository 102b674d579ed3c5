package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

// sessionRow is the relational shape of a session. The full record rides
// along as JSON so schema churn in Session never needs a migration.
type sessionRow struct {
	bun.BaseModel `bun:"table:chat_sessions"`

	SessionID    string          `bun:"session_id,pk"`
	CustomerID   string          `bun:"customer_id"`
	LastActivity time.Time       `bun:"last_activity"`
	Payload      json.RawMessage `bun:"payload,type:jsonb"`
}

// PostgresStore persists sessions in Postgres via bun. Unlike the Redis
// store it has no native TTL, so it implements Sweeper.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &PostgresStore{db: db}, nil
}

// Init creates the backing table when it does not exist yet.
func (p *PostgresStore) Init(ctx context.Context) error {
	_, err := p.db.NewCreateTable().
		Model((*sessionRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (p *PostgresStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	row := new(sessionRow)
	err := p.db.NewSelect().
		Model(row).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(row.Payload, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session payload: %w", err)
	}
	return &sess, nil
}

func (p *PostgresStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(sess.SessionID) == "" {
		return ErrInvalidSession
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	row := &sessionRow{
		SessionID:    sess.SessionID,
		CustomerID:   sess.CustomerID,
		LastActivity: sess.LastActivity,
		Payload:      payload,
	}

	_, err = p.db.NewInsert().
		Model(row).
		On("CONFLICT (session_id) DO UPDATE").
		Set("customer_id = EXCLUDED.customer_id").
		Set("last_activity = EXCLUDED.last_activity").
		Set("payload = EXCLUDED.payload").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, ErrInvalidSession
	}

	res, err := p.db.NewDelete().
		Model((*sessionRow)(nil)).
		Where("session_id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Sweep deletes sessions idle since before olderThan.
func (p *PostgresStore) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := p.db.NewDelete().
		Model((*sessionRow)(nil)).
		Where("last_activity < ?", olderThan).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
