// Package migrations встраивает SQL-миграции в бинарник, чтобы сервис
// накатывал схему при старте без внешних файлов.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
