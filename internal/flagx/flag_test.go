package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "flag with separate value",
			args:         []string{"-d", "postgres://cg:cg@db:5432/certgen", "-v", "on"},
			allowedFlags: []string{"-d", "-l"},
			want:         []string{"-d", "postgres://cg:cg@db:5432/certgen"},
		},
		{
			name:         "flag with attached value",
			args:         []string{"-l=./storage", "-v", "on"},
			allowedFlags: []string{"-d", "-l"},
			want:         []string{"-l=./storage"},
		},
		{
			name:         "positional words are dropped",
			args:         []string{"migrate-storage", "tpl-1", "-d", "postgres://db/certgen"},
			allowedFlags: []string{"-d"},
			want:         []string{"-d", "postgres://db/certgen"},
		},
		{
			name:         "unknown flags are dropped",
			args:         []string{"-x", "1", "--y=2"},
			allowedFlags: []string{"-d", "-l"},
			want:         []string{},
		},
		{
			name:         "flag at the end keeps no value",
			args:         []string{"-d"},
			allowedFlags: []string{"-d"},
			want:         []string{"-d"},
		},
		{
			name:         "following flag is not consumed as a value",
			args:         []string{"-s", "-d", "postgres://db/certgen"},
			allowedFlags: []string{"-s", "-d"},
			want:         []string{"-s", "-d", "postgres://db/certgen"},
		},
		{
			name:         "bare word after a flag is taken as its value",
			args:         []string{"-s", "false"},
			allowedFlags: []string{"-s"},
			want:         []string{"-s", "false"},
		},
		{
			name:         "attached value may itself start with dashes",
			args:         []string{"-d=--weird"},
			allowedFlags: []string{"-d"},
			want:         []string{"-d=--weird"},
		},
		{
			name:         "repeated flag preserved in order",
			args:         []string{"-l", "./a", "-l", "./b"},
			allowedFlags: []string{"-l"},
			want:         []string{"-l", "./a", "-l", "./b"},
		},
		{
			name:         "empty args give empty result",
			args:         []string{},
			allowedFlags: []string{"-d", "-l"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short -c with value", func(t *testing.T) {
		os.Args = []string{"certadmin", "-c", "/etc/certgen/config.json"}
		assert.Equal(t, "/etc/certgen/config.json", JsonConfigFlags())
	})

	t.Run("long -config with value", func(t *testing.T) {
		os.Args = []string{"certadmin", "-config", "/opt/certgen.json"}
		assert.Equal(t, "/opt/certgen.json", JsonConfigFlags())
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		os.Args = []string{"certadmin", "-x", "1", "-y", "2"}
		assert.Empty(t, JsonConfigFlags())
	})

	t.Run("multiple config flags, last wins", func(t *testing.T) {
		os.Args = []string{"certadmin", "-c", "/one.json", "-config", "/two.json"}
		assert.Equal(t, "/two.json", JsonConfigFlags())
	})
}
