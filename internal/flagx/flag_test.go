package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		valueFlags []string
		boolFlags  []string
		want       []string
	}{
		{
			name:       "short flag with separate value",
			args:       []string{"-c", "conf.toml", "-a", "localhost"},
			valueFlags: []string{"-c", "-config"},
			want:       []string{"-c", "conf.toml"},
		},
		{
			name:       "long flag with equals",
			args:       []string{"-config=alt.yaml", "-a", "localhost"},
			valueFlags: []string{"-c", "-config"},
			want:       []string{"-config=alt.yaml"},
		},
		{
			name:       "both short and long present, preserve order",
			args:       []string{"-config=first.json", "-c", "second.json", "-x", "1"},
			valueFlags: []string{"-c", "-config"},
			want:       []string{"-config=first.json", "-c", "second.json"},
		},
		{
			name:       "stray values are dropped",
			args:       []string{"value", "-u", "alice", "other"},
			valueFlags: []string{"-u"},
			want:       []string{"-u", "alice"},
		},
		{
			name:       "empty args",
			args:       []string{},
			valueFlags: []string{"-c"},
			want:       []string{},
		},
		{
			name:       "do not treat next dash-starting token as value",
			args:       []string{"-c", "-config=alt.json"},
			valueFlags: []string{"-c", "-config"},
			want:       []string{"-c", "-config=alt.json"},
		},
		{
			name:       "bool flag does not swallow the next argument",
			args:       []string{"-cached", "stray", "-u", "alice"},
			valueFlags: []string{"-u"},
			boolFlags:  []string{"-cached"},
			want:       []string{"-cached", "-u", "alice"},
		},
		{
			name:      "bool flag with explicit value",
			args:      []string{"-cached=false"},
			boolFlags: []string{"-cached"},
			want:      []string{"-cached=false"},
		},
		{
			name:       "repeated flag is preserved in order",
			args:       []string{"-c", "one.json", "-c", "two.json"},
			valueFlags: []string{"-c"},
			want:       []string{"-c", "one.json", "-c", "two.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.valueFlags, tt.boolFlags))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "/path/short.toml"}, "/path/short.toml"},
		{"long", []string{"-config", "/path/long.yaml"}, "/path/long.yaml"},
		{"equals", []string{"-u", "bob", "-config=/path/eq.json"}, "/path/eq.json"},
		{"absent", []string{"-x", "1", "-y", "2"}, ""},
		{"last wins", []string{"-c", "/path/1.json", "-config", "/path/2.json"}, "/path/2.json"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFileFlag(tt.args))
		})
	}
}
