// Package config loads and validates the sitepulse configuration file.
// Provider credentials are never stored in the file: the file names the
// environment variable that holds each key, and the Key accessors resolve
// it at call time. Watch provides fsnotify-based hot-reload notification.
package config
