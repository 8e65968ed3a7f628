package main

// Exit codes shared by every command.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, interrupted, runtime failure)
	ExitConfigError = 2 // Configuration error (bad config file, missing credentials)
	ExitDataError   = 3 // Data error (manifest unavailable or malformed, articles not exported)
	ExitWriteError  = 4 // Report or history could not be written
)
