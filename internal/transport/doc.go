// Package transport maps conversations to pub/sub topics and moves encrypted
// message frames over an opaque pub/sub network capability.
//
// The network itself is only required to offer the primitives of the PubSub
// interface (publish, subscribe, bounded history query); a
// concrete adapter exists per backend (see the redis and memory
// subpackages). The Adapter layered on top owns frame encoding, the
// transport-layer symmetric encryption, and deduplication of frames that
// arrive through more than one subscription.
package transport
