// Package sources fetches raw project rows for a region.
//
// Each region carries an ordered list of providers (agency HTML tables, link
// listings, rendered portals, spreadsheets, published Google Sheets, plain
// text pages). The Resolver tries them in order and stops at the first one
// that yields rows. Every attempt is recorded in a diagnostic trail; when
// all providers fail the region is represented by a single portal stub that
// carries no cost and must be verified by hand.
//
// Provider failures never abort a run. They are reported through the trail,
// logs and metrics, and only context cancellation stops resolution early.
package sources
