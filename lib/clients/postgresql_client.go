package clients

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"apar/lib/constants"
)

// NewPostgresSQLClient opens the apar database from the SSM connection
// parameters. sslmode defaults to require when the parameter is absent.
func NewPostgresSQLClient(params map[string]string) (*sql.DB, error) {
	sslMode := params[constants.SSL_MODE]
	if sslMode == "" {
		sslMode = "require"
	}

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params[constants.DATABASE_RDS_ENDPOINT],
		params[constants.DATABASE_PORT],
		params[constants.DATABASE_USERNAME],
		params[constants.DATABASE_PASSWORD],
		params[constants.DATABASE_NAME],
		sslMode,
	)

	db, err := sql.Open(constants.DRIVER_NAME, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	// One request per container; a submission holds a single connection for its transaction
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", params[constants.DATABASE_NAME], err)
	}

	return db, nil
}
