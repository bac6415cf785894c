package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"messenger/internal/domain"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the messenger schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              BIGSERIAL    PRIMARY KEY,
			name            VARCHAR(100) NOT NULL,
			email           VARCHAR(100) UNIQUE NOT NULL,
			avatar_url      TEXT,
			hashed_password VARCHAR(255) NOT NULL,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			last_seen       TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS contacts (
			owner_id   BIGINT      NOT NULL REFERENCES users(id),
			contact_id BIGINT      NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (owner_id, contact_id)
		)`,

		`CREATE TABLE IF NOT EXISTS conversations (
			id              BIGSERIAL   PRIMARY KEY,
			user_a_id       BIGINT      NOT NULL REFERENCES users(id),
			user_b_id       BIGINT      NOT NULL REFERENCES users(id),
			last_message_id BIGINT,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_a_id, user_b_id)
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id              BIGSERIAL   PRIMARY KEY,
			conversation_id BIGINT      NOT NULL REFERENCES conversations(id),
			sender_id       BIGINT      NOT NULL REFERENCES users(id),
			content         TEXT        NOT NULL,
			file_path       TEXT,
			file_type       TEXT,
			status          VARCHAR(16) NOT NULL DEFAULT 'sent',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_contacts_owner ON contacts(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_user_a ON conversations(user_a_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_user_b ON conversations(user_b_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_created ON messages(conversation_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_status ON messages(status)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// NewStores bundles the PostgreSQL repository implementations.
func NewStores(db *sql.DB) *domain.Stores {
	return &domain.Stores{
		Users:         NewUserRepo(db),
		Conversations: NewConversationRepo(db),
		Messages:      NewMessageRepo(db),
		Contacts:      NewContactRepo(db),
	}
}
