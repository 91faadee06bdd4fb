package parley

// Version is the library release identifier, surfaced by hosts (e.g. the
// parley CLI version command).
const Version = "0.1.0"
