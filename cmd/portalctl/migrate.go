package main

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/msu-projects/sitio-portal/migrations"
	"github.com/msu-projects/sitio-portal/pkg/configuration"
)

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Migrate the database to the latest version",
			RunE: func(_ *cobra.Command, _ []string) error {
				return withDB(func(db *sql.DB) error {
					return goose.Up(db, ".")
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(_ *cobra.Command, _ []string) error {
				return withDB(func(db *sql.DB) error {
					return goose.Down(db, ".")
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the migration status",
			RunE: func(_ *cobra.Command, _ []string) error {
				return withDB(func(db *sql.DB) error {
					return goose.Status(db, ".")
				})
			},
		},
	)
	return cmd
}

func withDB(fn func(db *sql.DB) error) error {
	conf := configuration.Use()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}

	db, err := sql.Open("pgx", conf.Database.Opts)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer func() {
		_ = db.Close()
	}()

	return fn(db)
}
