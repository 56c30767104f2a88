// Command dirmesh-cli is the client for the dirmesh directory service.
//
// Usage:
//
//	dirmesh-cli -s localhost:8888 register alice
//	dirmesh-cli connect --port 9000 alice
//	dirmesh-cli publish --user alice report "q1 notes"
//	dirmesh-cli -o json list-content --user alice bob
//	dirmesh-cli shell
//
// Each request uses its own connection. Exit status is 1 when the server
// reports a failure or the request could not be completed.
package main
