package guestinfo

import (
	"reflect"
	"testing"
)

func TestNewDesired(t *testing.T) {
	tests := []struct {
		name     string
		metadata []byte
		userdata []byte
		want     Desired
	}{
		{
			name:     "both payloads",
			metadata: []byte(`{"instance-id": "web01"}`),
			userdata: []byte("#cloud-config\n"),
			want: Desired{
				MetadataKey: `{"instance-id": "web01"}`,
				UserdataKey: "#cloud-config\n",
			},
		},
		{
			name:     "metadata only",
			metadata: []byte("meta"),
			want:     Desired{MetadataKey: "meta"},
		},
		{
			name:     "userdata only",
			userdata: []byte("user"),
			want:     Desired{UserdataKey: "user"},
		},
		{
			name: "neither payload",
			want: Desired{},
		},
		{
			name:     "empty slices omitted like nil",
			metadata: []byte{},
			userdata: []byte{},
			want:     Desired{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDesired(tt.metadata, tt.userdata)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewDesired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPassthrough(t *testing.T) {
	got := NewPassthrough("H4sIencodedmeta", "H4sIencodeduser")
	want := Desired{
		MetadataKey:         "H4sIencodedmeta",
		MetadataEncodingKey: EncodingGzipBase64,
		UserdataKey:         "H4sIencodeduser",
		UserdataEncodingKey: EncodingGzipBase64,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NewPassthrough() = %v, want %v", got, want)
	}

	// A missing payload omits both its key and its encoding companion.
	got = NewPassthrough("H4sIencodedmeta", "")
	want = Desired{
		MetadataKey:         "H4sIencodedmeta",
		MetadataEncodingKey: EncodingGzipBase64,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NewPassthrough() metadata-only = %v, want %v", got, want)
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name    string
		desired Desired
		current map[string]string
		want    map[string]string
	}{
		{
			name:    "everything missing",
			desired: Desired{MetadataKey: "A", UserdataKey: "B"},
			current: map[string]string{},
			want:    map[string]string{MetadataKey: "A", UserdataKey: "B"},
		},
		{
			name:    "everything already set",
			desired: Desired{MetadataKey: "A", UserdataKey: "B"},
			current: map[string]string{MetadataKey: "A", UserdataKey: "B"},
			want:    map[string]string{},
		},
		{
			name:    "one key stale",
			desired: Desired{MetadataKey: "A", UserdataKey: "B2"},
			current: map[string]string{MetadataKey: "A", UserdataKey: "B1"},
			want:    map[string]string{UserdataKey: "B2"},
		},
		{
			name:    "unrelated keys ignored",
			desired: Desired{MetadataKey: "A"},
			current: map[string]string{UserdataKey: "keep-me", "svga.present": "TRUE"},
			want:    map[string]string{MetadataKey: "A"},
		},
		{
			name:    "comparison is exact string equality",
			desired: Desired{MetadataKey: `{"a": 1}`},
			current: map[string]string{MetadataKey: `{"a":1}`},
			want:    map[string]string{MetadataKey: `{"a": 1}`},
		},
		{
			name:    "empty desired diffs empty",
			desired: Desired{},
			current: map[string]string{MetadataKey: "A"},
			want:    map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.desired.Diff(tt.current)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Diff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	d := Desired{UserdataKey: "B", MetadataKey: "A"}
	want := []string{MetadataKey, UserdataKey}
	if got := d.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want sorted %v", got, want)
	}
}
