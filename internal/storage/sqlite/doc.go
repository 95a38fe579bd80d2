// Package sqlite implements the credential and task stores over a single
// SQLite file. AUTOINCREMENT keys keep ids from being reused after deletes.
package sqlite
