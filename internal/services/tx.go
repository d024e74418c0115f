package services

import (
	"context"

	"gorm.io/gorm"
)

// runTx runs fn inside a database transaction. Without a configured
// database handle fn runs directly with a nil tx and the repos fall back
// to their own connections.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
