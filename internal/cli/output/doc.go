// Package output renders dirmesh-cli results.
//
// Listings go through a Formatter (table, json or yaml). Operation outcome
// lines go through a Printer, which colors them when the terminal allows.
package output
