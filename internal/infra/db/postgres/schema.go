package postgres

// Schema is the canonical DDL, applied by the seed tool and the integration
// test harness. The unique constraints are load-bearing: order_id on
// transactions backs the insert-if-absent ledger Save, and user_id on
// wallets arbitrates concurrent first-time creates.
const Schema = `
CREATE TABLE IF NOT EXISTS payments (
    id           UUID PRIMARY KEY,
    user_id      TEXT NOT NULL,
    amount       BIGINT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    order_id     TEXT NOT NULL UNIQUE,
    checkout_url TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL,
    paid_at      TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_payments_user ON payments (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_payments_pending ON payments (created_at) WHERE status = 'PENDING';

CREATE TABLE IF NOT EXISTS wallets (
    id              UUID PRIMARY KEY,
    user_id         TEXT NOT NULL UNIQUE,
    balance         BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    withdrawn_today BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id          UUID PRIMARY KEY,
    wallet_id   UUID NOT NULL REFERENCES wallets (id),
    payment_id  TEXT NOT NULL DEFAULT '',
    order_id    TEXT NOT NULL UNIQUE,
    amount      BIGINT NOT NULL,
    type        TEXT NOT NULL,
    status      TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    fingerprint TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_wallet ON transactions (wallet_id, created_at DESC);

CREATE TABLE IF NOT EXISTS subscriptions (
    id              UUID PRIMARY KEY,
    user_id         TEXT NOT NULL UNIQUE,
    status          TEXT NOT NULL,
    start_date      TIMESTAMPTZ NOT NULL,
    end_date        TIMESTAMPTZ NOT NULL,
    auto_renew      BOOLEAN NOT NULL DEFAULT FALSE,
    last_payment_at TIMESTAMPTZ,
    next_payment_at TIMESTAMPTZ,
    order_id        TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_due
    ON subscriptions (next_payment_at)
    WHERE status = 'active' AND auto_renew AND next_payment_at IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_subscriptions_overdue ON subscriptions (end_date) WHERE status IN ('active','cancelled');
`
