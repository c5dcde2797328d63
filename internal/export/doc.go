// Package export writes audit results to disk.
//
// The output format is chosen by file extension: a .xlsx path produces
// an Excel workbook with a single "Results" sheet, anything else a CSV
// file. Both formats emit the fixed column header followed by one row
// per audited domain, in input order. Parent directories are created
// as needed.
package export
