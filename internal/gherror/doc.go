// Package gherror provides error inspection capabilities for GitHub API errors.
// It centralizes the logic for identifying different types of errors returned by
// the GitHub GraphQL API, eliminating the need for string-based error checking
// throughout the codebase.
package gherror
