// Package messaging provides a broker-agnostic publish/consume client used
// for security event fan-out between modules.
//
// Supported backends are NATS, NSQ, and Kafka; the driver is selected from
// configuration so deployments can match whatever broker they already run.
package messaging
