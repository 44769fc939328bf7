package repository

import (
	"fmt"

	"gorm.io/gorm"
)

const bookingExclusionDDL = `
DO $$
BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'excl_bookings_item_period') THEN
        ALTER TABLE bookings ADD CONSTRAINT excl_bookings_item_period EXCLUDE USING gist (
            item_id WITH =,
            tstzrange(start_date, end_date) WITH &&
        ) WHERE (status IN ('WAITING', 'APPROVED'));
    END IF;
END
$$;`

// foreignKeys mirror the REFERENCES clauses of the SQL migrations.
var foreignKeys = []struct {
	table, name, definition string
}{
	{"requests", "fk_requests_requester", "FOREIGN KEY (requester_id) REFERENCES users (id) ON DELETE CASCADE"},
	{"items", "fk_items_owner", "FOREIGN KEY (owner_id) REFERENCES users (id) ON DELETE CASCADE"},
	{"items", "fk_items_request", "FOREIGN KEY (request_id) REFERENCES requests (id) ON DELETE SET NULL"},
	{"bookings", "fk_bookings_item", "FOREIGN KEY (item_id) REFERENCES items (id) ON DELETE CASCADE"},
	{"bookings", "fk_bookings_booker", "FOREIGN KEY (booker_id) REFERENCES users (id) ON DELETE CASCADE"},
	{"comments", "fk_comments_item", "FOREIGN KEY (item_id) REFERENCES items (id) ON DELETE CASCADE"},
	{"comments", "fk_comments_author", "FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE CASCADE"},
}

const addConstraintDDL = `
DO $$
BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
        ALTER TABLE %s ADD CONSTRAINT %s %s;
    END IF;
END
$$;`

// AutoMigrate creates the schema from the GORM models, then adds the foreign
// keys and the booking exclusion constraint. The models carry no association
// fields, so GORM creates neither.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&UserModel{},
		&ItemRequestModel{},
		&ItemModel{},
		&BookingModel{},
		&CommentModel{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("failed to enable btree_gist: %w", err)
	}
	for _, fk := range foreignKeys {
		ddl := fmt.Sprintf(addConstraintDDL, fk.name, fk.table, fk.name, fk.definition)
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", fk.name, err)
		}
	}
	if err := db.Exec(bookingExclusionDDL).Error; err != nil {
		return fmt.Errorf("failed to add booking exclusion constraint: %w", err)
	}
	return nil
}
