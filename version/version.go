package version

// Version is the current release of the crisislink binary.
var Version = "0.1.0"
