package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "string seconds", input: `"3s"`, want: 3 * time.Second},
		{name: "string composite", input: `"1m30s"`, want: 90 * time.Second},
		{name: "integer nanoseconds", input: `1500000000`, want: 1500 * time.Millisecond},
		{name: "zero", input: `0`, want: 0},
		{name: "bad string", input: `"soon"`, wantErr: true},
		{name: "bool", input: `true`, wantErr: true},
		{name: "malformed", input: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_InStruct(t *testing.T) {
	var cfg struct {
		Timeout Duration `json:"timeout"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"timeout":"250ms"}`), &cfg))
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout.Duration)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timeout":"250ms"}`, string(out))
}
