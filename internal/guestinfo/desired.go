// Package guestinfo reconciles a VM's guestinfo extra-configuration
// keys against the payloads supplied on the command line.
//
// The reconcile is a merge, not a replace: only the well-known guestinfo
// keys are ever touched, only when their current value differs from the
// desired one, and a run whose diff is empty performs no write at all.
package guestinfo

import (
	"sort"
)

// The well-known keys read by in-guest provisioning agents at boot.
const (
	MetadataKey = "guestinfo.metadata"
	UserdataKey = "guestinfo.userdata"

	// Companion keys announcing the payload encoding to the guest
	// agent, written only in passthrough mode.
	MetadataEncodingKey = "guestinfo.metadata.encoding"
	UserdataEncodingKey = "guestinfo.userdata.encoding"

	// EncodingGzipBase64 is the encoding announced for passthrough
	// payloads.
	EncodingGzipBase64 = "gzip+base64"
)

// Desired maps guestinfo keys to the values they must hold.
type Desired map[string]string

// NewDesired builds the desired state from decoded payloads. A nil or
// empty payload omits its key entirely, leaving whatever the VM
// currently holds untouched.
func NewDesired(metadata, userdata []byte) Desired {
	d := Desired{}
	if len(metadata) > 0 {
		d[MetadataKey] = string(metadata)
	}
	if len(userdata) > 0 {
		d[UserdataKey] = string(userdata)
	}
	return d
}

// NewPassthrough builds the desired state from still-encoded payloads,
// with the companion .encoding keys set so the guest agent knows to
// decode them. This matches how the gzip+base64 convention is consumed
// by cloud-init's VMware guestinfo datasource.
func NewPassthrough(encodedMetadata, encodedUserdata string) Desired {
	d := Desired{}
	if encodedMetadata != "" {
		d[MetadataKey] = encodedMetadata
		d[MetadataEncodingKey] = EncodingGzipBase64
	}
	if encodedUserdata != "" {
		d[UserdataKey] = encodedUserdata
		d[UserdataEncodingKey] = EncodingGzipBase64
	}
	return d
}

// Diff returns the key/value pairs in d whose current value differs.
// A key absent from current compares as the empty string. Keys present
// in current but not in d are never part of the result.
func (d Desired) Diff(current map[string]string) map[string]string {
	changes := map[string]string{}
	for k, want := range d {
		if current[k] != want {
			changes[k] = want
		}
	}
	return changes
}

// Keys returns the desired keys in sorted order, for logs and output.
func (d Desired) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
