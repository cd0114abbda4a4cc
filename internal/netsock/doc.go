// Package netsock is the blocking socket primitive used by the supervisory
// server and client: connected sockets with fixed-width integer and
// length-prefixed string framing, a listening socket, and a readiness set
// that waits for read activity across a dynamic group of sockets.
//
// Every socket owns a background reader that drains the kernel into an
// in-process buffer; reads consume that buffer with an optional timeout and
// the readiness set watches it. Closing a socket wakes every blocked reader
// and every readiness wait that includes it.
//
// Integers are encoded big-endian (network byte order). Strings are a uint16
// byte count followed by the raw bytes.
package netsock
