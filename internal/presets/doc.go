// Package presets persists saved encoding configurations in SQLite.
//
// A preset is a named builder.State stored as opaque JSON. The store offers
// CRUD, substring search and a JSON export/import format. Import only checks
// that the structural keys of a state are present; semantic checks belong to
// the validation package.
package presets
