// Package migrations holds the embedded SQL schema for the result store.
package migrations

import "embed"

// FS contains the migration files applied in name order.
//
//go:embed *.sql
var FS embed.FS
