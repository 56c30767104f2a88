// Package dirserver serves the directory wire protocol over TCP.
//
// The Server accepts connections and hands each one to a dispatcher that
// reads a single request, executes it against the directory and writes the
// reply before closing the connection. With Serialize set the server waits
// for each dispatcher to finish before accepting the next connection, so at
// most one request is in flight.
package dirserver
