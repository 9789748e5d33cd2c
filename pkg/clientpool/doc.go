// Package clientpool caches remote-client handles process-wide so that
// every reader using the same (accessKeyID, endpoint) pair shares one live
// handle. The secret only participates in handle construction, never in
// keying; rotating a secret for a fixed pair requires evicting the entry
// first. Entries never expire on their own.
package clientpool
