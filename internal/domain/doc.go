// Package domain contains the core entities of the skill exchange: users and
// their skill sets, pairing requests and learning sessions, together with the
// state machines that govern them. It has no knowledge of storage or transport.
package domain
