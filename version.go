package yerf

// Version is the release of the module.
const Version = "0.3.0"
