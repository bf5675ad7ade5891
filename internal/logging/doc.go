// Package logging provides the structured logging interface shared by the
// coordinator and its front-ends. Components depend on Logger only; the
// zerolog adapter is the production backend and the std adapter serves
// tests and plain-text environments.
package logging
