package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadTokenRoundTrip(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Minute)

	token, expiresAt, err := signer.Generate("serial-1", "certificates/serial-1.pdf")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	serial, relPath, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "serial-1", serial)
	assert.Equal(t, "certificates/serial-1.pdf", relPath)
}

func TestDownloadTokenExpired(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Minute)
	signer.ttl = -time.Minute

	token, _, err := signer.Generate("serial-1", "certificates/serial-1.pdf")
	require.NoError(t, err)

	_, _, err = signer.Parse(token)
	require.Error(t, err)
}

func TestDownloadTokenTampered(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Minute)

	token, _, err := signer.Generate("serial-1", "certificates/serial-1.pdf")
	require.NoError(t, err)

	encoded, sig, _ := strings.Cut(token, ".")
	forged := encoded + "x." + sig
	_, _, err = signer.Parse(forged)
	require.Error(t, err)

	other := NewDownloadSigner("another-secret", time.Minute)
	_, _, err = other.Parse(token)
	require.Error(t, err)
}

func TestDownloadTokenMalformed(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Minute)

	for _, token := range []string{"", "no-separator", "not-base64!!.deadbeef"} {
		_, _, err := signer.Parse(token)
		assert.Error(t, err, token)
	}
}

func TestArchiveSaveAndOpen(t *testing.T) {
	archive, err := NewCertificateArchive(t.TempDir())
	require.NoError(t, err)

	rel, err := archive.Save("certificates/s1.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "certificates/s1.pdf", rel)

	file, err := archive.Open(rel)
	require.NoError(t, err)
	defer file.Close()
}

func TestArchiveRejectsEscapingPaths(t *testing.T) {
	dir := t.TempDir()
	archive, err := NewCertificateArchive(dir)
	require.NoError(t, err)

	for _, path := range []string{"", "/etc/passwd", "../outside.pdf", "certificates/../../outside.pdf"} {
		_, err := archive.Save(path, []byte("x"))
		assert.Error(t, err, path)
		_, err = archive.Open(path)
		assert.Error(t, err, path)
	}

	// Nothing may have been written outside the base directory.
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "outside.pdf"))
	assert.True(t, os.IsNotExist(err))
}
