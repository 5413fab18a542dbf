// Package cli implements the docrest command line.
//
// Commands share the root --verbose and --format flags. Text output is
// meant for people; --format json wraps every result in CLIResponse.
// Failures are returned as *ExitError so main can pick the exit code.
package cli
