package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE quality_profiles (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				cutoff INTEGER NOT NULL DEFAULT 0,
				upgrade_allowed BOOLEAN NOT NULL DEFAULT TRUE,
				items TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE root_folders (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				path TEXT NOT NULL,
				default_metadata_profile_id INTEGER NOT NULL DEFAULT 0,
				default_quality_profile_id INTEGER NOT NULL DEFAULT 0,
				default_monitor_option TEXT NOT NULL DEFAULT 'all',
				default_new_item_monitor_option TEXT NOT NULL DEFAULT 'all',
				default_tags TEXT,
				is_calibre_library BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_root_folders_path ON root_folders (path)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE author_metadata (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				foreign_author_id TEXT NOT NULL,
				name TEXT NOT NULL,
				sort_name TEXT NOT NULL,
				overview TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_author_metadata_foreign_author_id ON author_metadata (foreign_author_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE authors (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				author_metadata_id INTEGER REFERENCES author_metadata (id) NOT NULL,
				path TEXT NOT NULL,
				root_folder_path TEXT,
				monitored BOOLEAN NOT NULL DEFAULT TRUE,
				monitor_new_items TEXT NOT NULL DEFAULT 'all',
				quality_profile_id INTEGER REFERENCES quality_profiles (id),
				metadata_profile_id INTEGER,
				tags TEXT,
				add_options TEXT,
				added TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_info_sync TIMESTAMPTZ
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_authors_author_metadata_id ON authors (author_metadata_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				author_metadata_id INTEGER REFERENCES author_metadata (id) NOT NULL,
				foreign_book_id TEXT NOT NULL,
				title TEXT NOT NULL,
				release_date TIMESTAMPTZ,
				monitored BOOLEAN NOT NULL DEFAULT FALSE,
				any_edition_ok BOOLEAN NOT NULL DEFAULT TRUE,
				added TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_info_sync TIMESTAMPTZ
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_books_foreign_book_id ON books (foreign_book_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_books_author_metadata_id ON books (author_metadata_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE editions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				book_id INTEGER REFERENCES books (id) ON DELETE CASCADE NOT NULL,
				foreign_edition_id TEXT NOT NULL,
				title TEXT NOT NULL,
				isbn13 TEXT,
				asin TEXT,
				format TEXT,
				is_ebook BOOLEAN NOT NULL DEFAULT FALSE,
				monitored BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_editions_foreign_edition_id ON editions (foreign_edition_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_editions_book_id ON editions (book_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE book_files (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				edition_id INTEGER REFERENCES editions (id) ON DELETE CASCADE NOT NULL,
				author_id INTEGER REFERENCES authors (id),
				path TEXT NOT NULL,
				size INTEGER NOT NULL DEFAULT 0,
				modified TIMESTAMPTZ,
				date_added TIMESTAMPTZ,
				scene_name TEXT,
				release_group TEXT,
				quality TEXT,
				media_info TEXT,
				indexer_flags INTEGER NOT NULL DEFAULT 0,
				part INTEGER NOT NULL DEFAULT 0,
				part_count INTEGER NOT NULL DEFAULT 0,
				calibre_id INTEGER NOT NULL DEFAULT 0
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_book_files_path ON book_files (path)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_book_files_edition_id ON book_files (edition_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("DROP TABLE IF EXISTS book_files")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS editions")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS books")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS authors")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS author_metadata")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS root_folders")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS quality_profiles")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
