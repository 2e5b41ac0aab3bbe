// Package session tracks the live conversational context per user. A user
// has at most one active session at a time; starting a session for another
// provider supersedes the current one.
package session
