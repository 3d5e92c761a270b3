package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultFerretOptionsValidates(t *testing.T) {
	opts := DefaultFerretOptions()
	require.NoError(t, opts.Validate())
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	opts := DefaultFerretOptions()
	opts.BaseSize = 0
	require.Error(t, opts.Validate())
}

func TestValidateRejectsExtendedNotExceedingBase(t *testing.T) {
	opts := DefaultFerretOptions()
	opts.ExtendedSize = opts.BaseSize
	require.Error(t, opts.Validate())
}

func TestValidateRejectsExtendedNotMultipleOfWeight(t *testing.T) {
	opts := DefaultFerretOptions()
	opts.Weight = opts.Weight + 1
	require.Error(t, opts.Validate())
}

func TestLoadAppliesDefaultsForZeroFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("buffer_size: 256\n"), 0o600))

	opts, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 256, opts.BufferSize)
	defaults := DefaultFerretOptions()
	require.Equal(t, defaults.BaseSize, opts.BaseSize)
	require.Equal(t, defaults.ExtendedSize, opts.ExtendedSize)
	require.Equal(t, defaults.Weight, opts.Weight)
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weight: 3\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
