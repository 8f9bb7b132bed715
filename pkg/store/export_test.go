package store

var OpenTimeout = &openTimeout
