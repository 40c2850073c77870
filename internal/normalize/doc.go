// Package normalize maps raw provider rows onto canonical project records.
//
// Every extraction is a small ordered rule table: labeled fields are read
// before free text, the first date layout that parses wins, and project
// types are matched in the fixed priority Bridge, Pavement, Highway, Safety.
// Normalization is a pure function of one row. A row with neither a
// description nor a usable cost is dropped without error.
package normalize
