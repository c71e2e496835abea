// Package utils provides conversion helpers for loosely typed payloads.
// Remote rows and legacy cache entries store numbers as JSON numbers or
// strings interchangeably; these helpers flatten them into one type.
package utils
