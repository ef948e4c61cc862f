package objectclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	cases := []struct {
		raw  string
		want Location
	}{
		{"s3://acme-1700000000000", Location{Bucket: "acme-1700000000000"}},
		{"s3://acme-1700000000000/", Location{Bucket: "acme-1700000000000"}},
		{"s3://acme-1/sales/1700000000000_prices.pdf", Location{Bucket: "acme-1", Key: "sales/1700000000000_prices.pdf"}},
		{"  s3://acme-1/sales/a/b.txt ", Location{Bucket: "acme-1", Key: "sales/a/b.txt"}},
	}
	for _, tc := range cases {
		got, err := ParseLocation(tc.raw)
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.want, got, tc.raw)
	}
}

func TestParseLocation_Malformed(t *testing.T) {
	for _, raw := range []string{"", "acme/sales/x", "https://acme.s3.amazonaws.com/x", "s3://", "s3:///key", "s3://Acme_Bucket/key"} {
		_, err := ParseLocation(raw)
		require.ErrorIs(t, err, ErrInvalidLocation, raw)
	}
}

func TestLocation_RoundTrip(t *testing.T) {
	loc := Location{Bucket: "acme-1", Key: "sales/1_file.docx"}
	require.Equal(t, "s3://acme-1/sales/1_file.docx", loc.String())
	require.True(t, loc.HasObject())

	parsed, err := ParseLocation(loc.String())
	require.NoError(t, err)
	require.Equal(t, loc, parsed)

	bare := Location{Bucket: "acme-1"}
	require.Equal(t, "s3://acme-1", bare.String())
	require.False(t, bare.HasObject())
}
