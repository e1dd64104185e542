// Package postboard is a terminal client for a jsonplaceholder-style posts API.
//
// It lists, creates, edits and deletes posts. All network calls go through
// store.Store, which applies their outcomes one at a time and broadcasts
// state snapshots to the presentation layer (package ui and the postboard CLI).
//
// Every operation is a single HTTP request. There are no retries, no caching
// and no optimistic updates: the local collection changes only after the
// server responded.
package postboard
