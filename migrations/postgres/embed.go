// Package postgres embeds the SQL migrations so the binary can apply them
// without shipping loose files.
package postgres

import "embed"

//go:embed *.sql
var FS embed.FS
