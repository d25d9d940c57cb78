// Package migrations embeds the schema files for every supported dialect.
package migrations

import "embed"

// FS holds <dialect>/<NNN_name>.sql files
//
//go:embed sqlite/*.sql postgres/*.sql mysql/*.sql
var FS embed.FS
