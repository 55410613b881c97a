// Package migrations embeds the schema scripts run by the migrate command.
package migrations

import _ "embed"

//go:embed 001_init.sql
var MySQL string

//go:embed 001_dispatches.clickhouse.sql
var ClickHouse string
