package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// EnsureSchema creates the application tables when they do not exist
// yet. Statements are idempotent so the function is safe to run on
// every startup.
func EnsureSchema(db *sql.DB) error {
	ctx := context.Background()

	stmts := []string{
		createUsersTable,
		createEquipmentsTable,
		createNfcTagsTable,
		createEquipmentEventsTable,
	}

	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d/%d failed: %w", i+1, len(stmts), err)
		}
	}

	log.Println("database schema ensured")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
  id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  email         VARCHAR(255) NOT NULL,
  password_hash VARCHAR(255) NOT NULL,
  first_name    VARCHAR(100) NOT NULL,
  last_name     VARCHAR(100) NOT NULL,
  role          ENUM('ADMIN','USER') NOT NULL DEFAULT 'USER',
  is_active     TINYINT(1) NOT NULL DEFAULT 1,
  created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

const createEquipmentsTable = `
CREATE TABLE IF NOT EXISTS equipments (
  id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  name        VARCHAR(255) NOT NULL,
  description TEXT NULL,
  category    VARCHAR(100) NOT NULL,
  status      ENUM('IN_SERVICE','OUT_OF_SERVICE','MAINTENANCE','LOANED') NOT NULL DEFAULT 'IN_SERVICE',
  location    VARCHAR(255) NULL,
  notes       TEXT NULL,
  created_by  BIGINT UNSIGNED NOT NULL,
  created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  KEY idx_equipments_category (category),
  KEY idx_equipments_status (status),
  CONSTRAINT fk_equipments_creator FOREIGN KEY (created_by) REFERENCES users (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

// Tag exclusivity is enforced in the schema: tag_id is unique across
// all tags and equipment_id is unique across all bindings, so the
// check-then-upsert in the repository can never produce two live
// bindings for the same identifier even under concurrent requests.
const createNfcTagsTable = `
CREATE TABLE IF NOT EXISTS nfc_tags (
  id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  tag_id       VARCHAR(100) NOT NULL,
  equipment_id BIGINT UNSIGNED NULL,
  is_active    TINYINT(1) NOT NULL DEFAULT 1,
  created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_nfc_tags_tag_id (tag_id),
  UNIQUE KEY uq_nfc_tags_equipment (equipment_id),
  CONSTRAINT fk_nfc_tags_equipment FOREIGN KEY (equipment_id) REFERENCES equipments (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

const createEquipmentEventsTable = `
CREATE TABLE IF NOT EXISTS equipment_events (
  id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  equipment_id BIGINT UNSIGNED NOT NULL,
  type         ENUM('LOAN','RETURN','MAINTENANCE_START','MAINTENANCE_END','STATUS_CHANGE','TAG_ASSIGNED','TAG_REMOVED') NOT NULL,
  description  TEXT NULL,
  user_id      BIGINT UNSIGNED NOT NULL,
  metadata     JSON NULL,
  created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  KEY idx_events_equipment_created (equipment_id, created_at),
  CONSTRAINT fk_events_equipment FOREIGN KEY (equipment_id) REFERENCES equipments (id) ON DELETE CASCADE,
  CONSTRAINT fk_events_user FOREIGN KEY (user_id) REFERENCES users (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`
