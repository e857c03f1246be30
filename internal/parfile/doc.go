// Package parfile loads spectrometer parameter-definition files into the
// schema model.
//
// The format is line-oriented and block-structured, fixed by the instrument
// vendor. Each block begins with `T_NAME <ident>` (a full definition) or
// `NAME <ident>` (a display-only alias), carries zero or more `KEYWORD
// value` lines, and ends with `END`. A top-level `HEADER "label"` line
// opens a cosmetic section. Keywords and identifiers are matched
// case-insensitively; the source data mixes cases freely.
package parfile
