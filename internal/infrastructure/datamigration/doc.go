// Package datamigration holds the one-off data rewrites run from the admin CLI.
// Every migration is idempotent: a second run reports zero changes. A dry run
// executes the same statements inside a transaction that is rolled back, so the
// reported counts are exact.
package datamigration
