// Package notify delivers OTP codes and password reset tickets for the
// authcore engine.
//
// [LogNotifier] prints codes to a structured logger and is meant for local
// development only. [KafkaNotifier] publishes one record per message to a
// Kafka topic for a downstream mailer to consume.
package notify
