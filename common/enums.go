// Package common holds enumerations shared by the engine packages and the
// configuration. Keeping them here lets atom and compiler stay independent of
// the config package.
package common

//go:generate go tool go-enum --marshal --names

// Identifier formatting mode. Both modes share the same underlying hash.
// ENUM(compact, verbose)
type NamingMode int

// IsVerbose reports whether identifiers embed property name and value fragment.
func (m NamingMode) IsVerbose() bool {
	return m == NamingModeVerbose
}
