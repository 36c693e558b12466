// Package audit keeps the binding history of the identity registry.
//
// Every successful registration is written to the audit_logs table as one
// or more entries: the new binding, the operator's released previous device
// and the operator displaced from the claimed device. Entries are append-only
// and listed newest first.
package audit
