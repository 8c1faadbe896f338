// Package cli provides the fencrypt command-line interface.
//
// It wires configuration, logging and the core packages into a cobra
// command tree, reads passphrases from the terminal without echo, and
// renders results as colored status lines.
//
// Commands:
//   - encrypt <paths...>   encrypt files into .enc and directories into .pack
//   - decrypt <paths...>   decrypt .enc files and .pack directories
//   - pack <dir>           encrypt one directory into <dir>.pack
//   - unpack <pack>        open a pack for editing, press "u" to update it
//   - text encrypt|decrypt encrypt short values to base64 and back
//   - version              print build information
package cli
