// Package journal persists received radio frames to SQLite.
//
// Every inbound frame is recorded with its link quality and raw bytes
// before decoding. The journal serves diagnostics (what did node 3
// actually send last night) and makes it possible to replay captured
// traffic against the codec during development.
package journal
