package database

import (
	"context"
	"database/sql"
	"strings"
)

// Schema is the full DDL for the fleet database. Statements are ordered
// so foreign keys resolve; Migrate executes them one by one because the
// MySQL driver does not accept multi-statement strings by default.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    email         VARCHAR(255) NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    role          VARCHAR(16)  NOT NULL DEFAULT 'STAFF',
    is_active     TINYINT(1)   NOT NULL DEFAULT 1,
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    UNIQUE KEY uq_users_email (email)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS refresh_tokens (
    id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    user_id    BIGINT UNSIGNED NOT NULL,
    token_hash CHAR(64) NOT NULL,
    expires_at DATETIME NOT NULL,
    revoked_at DATETIME NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    KEY idx_refresh_tokens_hash (token_hash),
    CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS customers (
    id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    name       VARCHAR(255) NOT NULL,
    email      VARCHAR(255) NOT NULL,
    phone      VARCHAR(32)  NOT NULL DEFAULT '',
    address    VARCHAR(512) NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (id)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS vehicles (
    id                  BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    make                VARCHAR(64)  NOT NULL,
    model               VARCHAR(64)  NOT NULL,
    year                SMALLINT UNSIGNED NOT NULL,
    category            VARCHAR(32)  NOT NULL,
    registration_number VARCHAR(32)  NOT NULL,
    price_per_day_cents BIGINT       NOT NULL DEFAULT 0,
    status              ENUM('AVAILABLE','RENTED','MAINTENANCE') NOT NULL DEFAULT 'AVAILABLE',
    created_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    UNIQUE KEY uq_vehicles_registration (registration_number),
    KEY idx_vehicles_category (category),
    KEY idx_vehicles_status (status)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS rentals (
    id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    customer_id      BIGINT UNSIGNED NOT NULL,
    vehicle_id       BIGINT UNSIGNED NOT NULL,
    rental_date      DATETIME NOT NULL,
    return_date      DATETIME NULL,
    total_cost_cents BIGINT NOT NULL DEFAULT 0,
    status           VARCHAR(16) NOT NULL DEFAULT 'ACTIVE',
    created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    KEY idx_rentals_customer (customer_id),
    KEY idx_rentals_vehicle_status (vehicle_id, status),
    CONSTRAINT fk_rentals_customer FOREIGN KEY (customer_id) REFERENCES customers (id),
    CONSTRAINT fk_rentals_vehicle  FOREIGN KEY (vehicle_id)  REFERENCES vehicles (id)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS maintenance_records (
    id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    vehicle_id     BIGINT UNSIGNED NOT NULL,
    description    TEXT NOT NULL,
    cost_cents     BIGINT NOT NULL DEFAULT 0,
    scheduled_date DATETIME NOT NULL,
    completed_date DATETIME NULL,
    status         VARCHAR(16) NOT NULL DEFAULT 'SCHEDULED',
    created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    KEY idx_maintenance_vehicle_status (vehicle_id, status),
    CONSTRAINT fk_maintenance_vehicle FOREIGN KEY (vehicle_id) REFERENCES vehicles (id)
) ENGINE=InnoDB;
`

// Migrate applies the schema, statement by statement. Statements are
// idempotent (IF NOT EXISTS) so Migrate can run on every deploy.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range SplitStatements(Schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SplitStatements breaks a DDL script into individual statements on
// semicolons. Good enough for this schema: no procedures, no semicolons
// inside literals.
func SplitStatements(script string) []string {
	parts := strings.Split(script, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
