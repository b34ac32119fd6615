// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, zap logging, and optional rotating
// log files for the CLI, along with small path and writer helpers.
package utils
