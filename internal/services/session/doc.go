// Package session manages the single active relationship: which peer we talk
// to and the 256-bit session key shared with them.
//
// Connecting to a different peer wipes and replaces the previous key.
// Reconnecting the same peer keeps it unless a new key is supplied.
package session
