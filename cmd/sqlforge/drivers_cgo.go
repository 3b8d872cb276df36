//go:build cgo

package main

// Registers the "sqlite3" driver.
import _ "github.com/mattn/go-sqlite3"
