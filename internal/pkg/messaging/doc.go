// Package messaging provides a broker-agnostic API for publishing and
// consuming messages.
//
// Business code depends on the Messaging interface only; the concrete
// broker (Kafka, NATS, NSQ, Google Pub/Sub or the in-memory driver) is
// chosen at startup through NewFromDriver.
package messaging
