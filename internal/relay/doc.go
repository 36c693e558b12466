// Package relay connects the bus to the rest of the relay.
//
// Service owns the bus side of the data flow:
//
//   - outbound: Request encodes a command and publishes it on the request
//     topic for the device, then tracks the expected response
//   - inbound: every response message is deduplicated, classified by the
//     router, decoded and handed to the notification dispatcher
//   - subscriptions: Watch/Unwatch manage per-device topics in device scope;
//     in global scope the shared response topics are subscribed once
//
// When a response timeout is configured, a sweeper notifies the operator
// about requests the device never answered.
package relay
