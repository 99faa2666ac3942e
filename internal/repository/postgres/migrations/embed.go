package migrations

import _ "embed"

// Schema is the idempotent Postgres DDL for the whole application.
//
//go:embed schema.sql
var Schema string
