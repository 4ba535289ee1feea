package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		in      string
		want    ByteSize
		wantErr bool
	}{
		{in: "1024", want: 1024},
		{in: "8KiB", want: 8 * KiB},
		{in: "8 KiB", want: 8 * KiB},
		{in: "1MiB", want: MiB},
		{in: "1MB", want: 1000 * 1000},
		{in: "64k", want: 64 * 1000},
		{in: "", wantErr: true},
		{in: "lots", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseByteSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestByteSize_YAMLRoundTrip(t *testing.T) {
	type wrapper struct {
		Size ByteSize `yaml:"size"`
	}
	data, err := yaml.Marshal(wrapper{Size: 8 * KiB})
	require.NoError(t, err)
	assert.Equal(t, "size: 8.0KiB\n", string(data))

	var w wrapper
	require.NoError(t, yaml.Unmarshal(data, &w))
	assert.Equal(t, 8*KiB, w.Size)
}

func TestByteSize_String(t *testing.T) {
	assert.Equal(t, "8.0 KiB", (8 * KiB).String())
	assert.Equal(t, 8192, (8 * KiB).Int())
}
