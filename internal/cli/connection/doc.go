// Package connection is the directory protocol client used by dirmesh-cli.
//
// Each request dials the server, writes one fixed-width request, reads the
// status and any listing records, and closes the connection. The server
// answers exactly one request per connection.
package connection
