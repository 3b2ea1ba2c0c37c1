package captions

// AvailableLanguages exposes availableLanguages for testing.
var AvailableLanguages = availableLanguages
