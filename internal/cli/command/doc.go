// Package command defines the dirmesh-cli commands on urfave/cli/v2.
//
// One subcommand exists per directory operation, plus an interactive shell
// that keeps the connected user between lines, a journal dump and a
// version command. Every operation prints the outcome line the shell
// prints, for example "REGISTER OK" or "CONNECT FAIL, USER DOES NOT EXIST".
package command
