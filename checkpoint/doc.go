// Package checkpoint encodes the restartable state of a locator.
//
// The persistence backend belongs to the caller. Write emits one
// self-describing block to an io.Writer; Read restores it.
//
// Format:
//
//	Magic       (4 bytes) "GSCK"
//	Version     (4 bytes)
//	Compression (1 byte)  none, lz4 or zstd
//	Checksum    (4 bytes) CRC32 of the uncompressed payload
//	RawLength   (4 bytes) uncompressed payload length
//	DataLength  (4 bytes) stored payload length
//	Payload...
//
// The payload holds the locator name, the boundary pair, the patch size,
// the maximum patch ratio and one entry per slave node with its candidate
// list and nearest match.
package checkpoint
