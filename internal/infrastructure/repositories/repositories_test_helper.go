package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createMerchantTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE merchants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 0,
		is_verified BOOLEAN NOT NULL DEFAULT 0,
		is_new BOOLEAN NOT NULL DEFAULT 1,
		registration_step INTEGER NOT NULL DEFAULT 0,
		business_name TEXT,
		owner_name TEXT,
		phone_number TEXT NOT NULL UNIQUE,
		business_categories TEXT,
		business_types TEXT,
		business_registration TEXT NOT NULL DEFAULT 'UNREGISTERED',
		zip_code TEXT,
		province TEXT,
		city TEXT,
		barangay TEXT,
		street_name TEXT,
		house_number TEXT,
		latitude TEXT,
		longitude TEXT,
		selfie_with_id TEXT,
		valid_id TEXT,
		barangay_permit TEXT,
		dti_sec_certificate TEXT,
		bir_certificate TEXT,
		mayors_permit TEXT,
		other_documents TEXT DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'PENDING',
		verification_notes TEXT,
		verified_at DATETIME,
		temp_registration_data TEXT DEFAULT '{}',
		rating REAL DEFAULT 0,
		total_orders INTEGER DEFAULT 0,
		total_sales REAL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		last_login DATETIME
	);`)
	// Same shape as the production indexes: case-insensitive on username
	// and email, exact on phone_number.
	mustExec(t, db, `CREATE UNIQUE INDEX uniq_merchants_username ON merchants (LOWER(username));`)
	mustExec(t, db, `CREATE UNIQUE INDEX uniq_merchants_email ON merchants (LOWER(email));`)
}
