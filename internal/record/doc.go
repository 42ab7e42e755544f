// Package record provides the case record types shared by every casebook package.
//
// This package contains type definitions and pure helpers only. It imports
// nothing internal, so table, validate, store and ledger can all depend on it
// without cycles.
//
// Key design constraints:
//   - Cells are kept as strings; typed views (dates, money) are parsed on demand
//     so a malformed table can still be loaded and reported on.
//   - Money is github.com/shopspring/decimal, never float.
//   - Dates are canonical YYYY-MM-DD strings.
//   - The composite key compares index numbers case-insensitively (Unicode
//     case folding) and appearance dates by canonical string.
package record
