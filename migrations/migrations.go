package migrations

import "embed"

// FS postgres schema, 由 golang-migrate 的 iofs source 讀取
//
//go:embed *.sql
var FS embed.FS
