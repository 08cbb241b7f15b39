package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cliflag "k8s.io/component-base/cli/flag"
)

type sampleOptions struct {
	Server struct {
		Addr    string        `mapstructure:"addr"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"server"`
	Name string `mapstructure:"name"`

	completed bool
	invalid   bool
}

func newSampleOptions() *sampleOptions {
	o := &sampleOptions{Name: "default"}
	o.Server.Addr = ":80"
	o.Server.Timeout = time.Second
	return o
}

func (o *sampleOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("server")
	fs.StringVar(&o.Server.Addr, "server.addr", o.Server.Addr, "address")
	fs.DurationVar(&o.Server.Timeout, "server.timeout", o.Server.Timeout, "timeout")
	fss.FlagSet("misc").StringVar(&o.Name, "name", o.Name, "name")
	return fss
}

func (o *sampleOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *sampleOptions) Validate() error {
	if o.invalid {
		return errors.New("invalid")
	}
	return nil
}

func execute(t *testing.T, a *App, args ...string) error {
	t.Helper()
	a.Command().SetArgs(args)
	return a.Command().Execute()
}

func TestFlagsOnly(t *testing.T) {
	opts := newSampleOptions()
	ran := false
	a := NewApp("sample-app", "test", WithOptions(opts), WithRunFunc(func() error {
		ran = true
		return nil
	}))

	require.NoError(t, execute(t, a, "--server.addr=:9000", "--name=box"))
	assert.True(t, ran)
	assert.True(t, opts.completed)
	assert.Equal(t, ":9000", opts.Server.Addr)
	assert.Equal(t, time.Second, opts.Server.Timeout)
	assert.Equal(t, "box", opts.Name)
}

func TestConfigFileAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":7000\"\n  timeout: 3s\nname: from-file\n"), 0o600))

	opts := newSampleOptions()
	a := NewApp("sample-app", "test", WithOptions(opts), WithRunFunc(func() error { return nil }))

	require.NoError(t, execute(t, a, "--config", path, "--name=from-flag"))
	assert.Equal(t, ":7000", opts.Server.Addr)
	assert.Equal(t, 3*time.Second, opts.Server.Timeout)
	assert.Equal(t, "from-flag", opts.Name)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("SAMPLE_SERVER_ADDR", ":6000")

	opts := newSampleOptions()
	a := NewApp("sample-app", "test", WithOptions(opts), WithRunFunc(func() error { return nil }))

	require.NoError(t, execute(t, a))
	assert.Equal(t, ":6000", opts.Server.Addr)
}

func TestMissingConfigFile(t *testing.T) {
	a := NewApp("sample-app", "test", WithOptions(newSampleOptions()), WithRunFunc(func() error { return nil }))
	assert.Error(t, execute(t, a, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestValidationFailureStopsRun(t *testing.T) {
	opts := newSampleOptions()
	opts.invalid = true
	ran := false
	a := NewApp("sample-app", "test", WithOptions(opts), WithRunFunc(func() error {
		ran = true
		return nil
	}))

	assert.Error(t, execute(t, a))
	assert.False(t, ran)
}

func TestDefaultValidArgs(t *testing.T) {
	a := NewApp("sample-app", "test", WithDefaultValidArgs(), WithRunFunc(func() error { return nil }))
	assert.Error(t, execute(t, a, "unexpected"))
}
