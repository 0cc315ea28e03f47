// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
//
// Missing rows are reported as pgx.ErrNoRows wrapped with a
// "table:<name>:" prefix, which sqlerr turns into "<Entity> not found".
package repository

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

func notFound(table string) error {
	return fmt.Errorf("table:%s:%w", table, pgx.ErrNoRows)
}
