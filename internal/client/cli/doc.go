// Package cli implements the paaster command-line client.
//
// The command tree is built with cobra:
//
//	paaster share [file]   encrypt text and/or a file and print the share link
//	paaster open <link>    fetch, decrypt and print (or save) a share
//	paaster history        list links published from this machine
//	paaster ping           check that the server is reachable
//
// Encryption happens locally; the server only ever sees ciphertext, and the
// key travels in the link fragment. Passwords are read from the terminal
// without echo.
package cli
