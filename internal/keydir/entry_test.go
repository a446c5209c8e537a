package keydir

import (
	"testing"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() *Entry {
	e := &Entry{Username: "alice"}
	for i := range e.Owner {
		e.Owner[i] = byte(i)
	}
	for i := range e.EncryptionKey {
		e.EncryptionKey[i] = byte(255 - i)
	}
	return e
}

func TestRecord_RoundTrip(t *testing.T) {
	e := sampleEntry()

	data, err := e.MarshalRecord()
	require.NoError(t, err)
	require.Len(t, data, RecordSize)

	got, err := UnmarshalRecord(data)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestMarshalRecord_InvalidUsername(t *testing.T) {
	e := sampleEntry()
	e.Username = "No Uppercase Allowed"

	_, err := e.MarshalRecord()
	assert.ErrorIs(t, err, common.ErrInvalidUsername)
}

func TestUnmarshalRecord_Corrupt(t *testing.T) {
	valid, err := sampleEntry().MarshalRecord()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"short", func(b []byte) []byte { return b[:len(b)-1] }},
		{"long", func(b []byte) []byte { return append(b, 0) }},
		{"unknown version", func(b []byte) []byte { b[0] = 9; return b }},
		{"zero username length", func(b []byte) []byte { b[1] = 0; return b }},
		{"oversized username length", func(b []byte) []byte { b[1] = MaxUsernameLength + 1; return b }},
		{"nonzero padding", func(b []byte) []byte { b[2+MaxUsernameLength-1] = 'x'; return b }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := tc.mutate(append([]byte(nil), valid...))
			_, err := UnmarshalRecord(data)
			assert.Error(t, err)
		})
	}
}

func TestKeyFromBytes(t *testing.T) {
	b := make([]byte, KeySize)
	b[0] = 42

	k, err := KeyFromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, byte(42), k[0])

	_, err = KeyFromBytes(b[:KeySize-1])
	assert.ErrorIs(t, err, common.ErrInvalidKey)

	_, err = KeyFromBytes(append(b, 0))
	assert.ErrorIs(t, err, common.ErrInvalidKey)
}

func TestOwnerFromHex(t *testing.T) {
	o := sampleEntry().Owner

	parsed, err := OwnerFromHex(o.Hex())
	require.NoError(t, err)
	assert.Equal(t, o, parsed)

	_, err = OwnerFromHex("zz")
	assert.Error(t, err)

	_, err = OwnerFromHex(o.Hex()[:10])
	assert.Error(t, err)
}
