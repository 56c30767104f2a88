// Package filestore implements the directory stores as line-oriented text
// files under one data directory:
//
//	users.csv        one identity per line
//	connected.csv    one "identity;ip;port" line per session, in open order
//	files/<identity> one "name;description" line per catalog entry
//
// Additions append a line. Removals write the filtered content to a temp
// file in the same directory, fsync it and rename it over the original, so
// a reader sees either the old or the new file and never a partial one. A
// catalog's blank entry is stored as an empty line, and listings stop there.
package filestore
