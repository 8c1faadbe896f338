// Package common contains shared constants, sentinel errors and small helpers
// used across fencrypt components.
package common

const (
	// AppName is used for temp directory prefixes and log attributes.
	AppName = "fencrypt"

	// EncryptedFileSuffix is appended to regular files on encryption.
	EncryptedFileSuffix = ".enc"

	// PackSuffix is appended to directories encrypted as a pack.
	PackSuffix = ".pack"

	// DecryptedFileSuffix is appended when a decrypted input carries no
	// known suffix to strip.
	DecryptedFileSuffix = ".dec"
)
