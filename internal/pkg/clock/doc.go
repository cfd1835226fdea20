// Package clock provides a tiny time abstraction.
//
// OTP expiry decisions depend on "now", so production code takes a Clocker
// instead of calling time.Now() directly. Tests swap in a fixed clock and
// drive the validity window deterministically.
package clock
