// Package otp implements code generation and lifetime policy for one-time
// passwords delivered out of band.
package otp
