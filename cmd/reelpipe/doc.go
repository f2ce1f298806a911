// Package main hosts the reelpipe CLI.
//
// Every pipeline stage has its own command so cron entries can run them one
// at a time; `reelpipe run` executes a selection in order. The command
// context loads .env files and the TOML config once, builds the logger and
// takes the optional run lock before any stage touches the ledger.
package main
