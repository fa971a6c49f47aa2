// Package util provides small shared helpers: logging, passphrase
// validation, and filesystem paths.
package util

import "log"

// LogError logs an error with context if it is non-nil.
func LogError(context string, err error) {
	if err != nil {
		log.Printf("%s: %v", context, err)
	}
}
