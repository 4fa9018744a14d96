// Package stream drives a remote render target over WebSocket.
//
// The server side keeps, per connection, a mirror of the client's live
// tree behind an updater.Updater. Every Session.Push diffs the new
// snapshot against the mirror, applies the script to the mirror, and only
// then writes it to the wire as a patches frame, so a script that cannot
// be applied never reaches the client.
//
// A session starts with one snapshot frame carrying the initial tree at
// sequence 0. Each following patches frame carries the next sequence
// number. The Client materializes the snapshot into a dom.Document and
// applies each patches frame in order; a gap in the sequence or a failed
// apply is reported back to the server as a fatal error frame.
package stream
