package database

import "context"

// schema is applied at startup. The partial unique index on sessions
// is load-bearing: it is what turns a concurrent double-open into a
// unique violation the tracker can catch and downgrade to a
// heartbeat.
const schema = `
CREATE TABLE IF NOT EXISTS users (
  user_id BIGINT PRIMARY KEY,
  username TEXT,
  first_name TEXT,
  last_name TEXT,
  joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  last_seen TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS roles (
  user_id BIGINT NOT NULL,
  role TEXT NOT NULL,
  PRIMARY KEY (user_id, role)
);

CREATE TABLE IF NOT EXISTS bans (
  user_id BIGINT PRIMARY KEY,
  added_by BIGINT NOT NULL,
  reason TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sessions (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  kind TEXT NOT NULL CHECK (kind IN ('chat', 'call')),
  start_time TIMESTAMPTZ NOT NULL,
  last_activity_time TIMESTAMPTZ NOT NULL,
  end_time TIMESTAMPTZ,
  end_reason TEXT,
  message_count INT NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS sessions_one_open_per_kind
  ON sessions (user_id, kind) WHERE end_time IS NULL;

CREATE INDEX IF NOT EXISTS sessions_open_by_kind
  ON sessions (kind, last_activity_time) WHERE end_time IS NULL;

CREATE TABLE IF NOT EXISTS daily_aggregates (
  user_id BIGINT NOT NULL,
  day DATE NOT NULL,
  message_count INT NOT NULL DEFAULT 0,
  reply_sent_count INT NOT NULL DEFAULT 0,
  reply_received_count INT NOT NULL DEFAULT 0,
  chat_seconds BIGINT NOT NULL DEFAULT 0,
  call_seconds BIGINT NOT NULL DEFAULT 0,
  call_session_count INT NOT NULL DEFAULT 0,
  first_checkin_time TIMESTAMPTZ,
  last_checkout_time TIMESTAMPTZ,
  PRIMARY KEY (user_id, day)
);

CREATE TABLE IF NOT EXISTS messages (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  chat_id BIGINT NOT NULL,
  ts TIMESTAMPTZ NOT NULL,
  mention_count INT NOT NULL DEFAULT 0,
  has_media BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS messages_chat_ts ON messages (chat_id, ts);
`

// Migrate bootstraps the schema. Idempotent; runs on every start.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
