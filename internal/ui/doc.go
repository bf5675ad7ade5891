// Package ui holds the color themes shared by the REPL and the dashboard,
// and maps lifecycle states to theme colors.
package ui
