package srn_test

import (
	"encoding/json"
	"testing"

	"github.com/open-science-archive/osa-go/pkg/srn"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want srn.SRN
	}{
		{
			in:   "urn:osa:localhost:dep:01jb7r3z1emch1t290zq3gzj9v",
			want: srn.SRN{Node: "localhost", Type: srn.TypeDeposition, Local: "01jb7r3z1emch1t290zq3gzj9v"},
		},
		{
			in:   "urn:osa:localhost:conv:seed-sample-survey@1.0.0",
			want: srn.SRN{Node: "localhost", Type: srn.TypeConvention, Local: "seed-sample-survey", Version: "1.0.0"},
		},
		{
			in:   "urn:osa:archive.example.org:rec:01jb7r3z1emch1t290zq3gzj9v@3",
			want: srn.SRN{Node: "archive.example.org", Type: srn.TypeRecord, Local: "01jb7r3z1emch1t290zq3gzj9v", Version: "3"},
		},
		{
			in:   "urn:osa:localhost:schema:binding-measurement@2.1.0-beta.1",
			want: srn.SRN{Node: "localhost", Type: srn.TypeSchema, Local: "binding-measurement", Version: "2.1.0-beta.1"},
		},
		{
			// case-insensitive input, canonicalised down
			in:   "URN:OSA:LocalHost:DEP:Test-Dep-001",
			want: srn.SRN{Node: "localhost", Type: srn.TypeDeposition, Local: "test-dep-001"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := srn.Parse(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"urn:osa",
		"osa:localhost:dep:abc",                  // missing urn scheme
		"urn:other:localhost:dep:abc",            // wrong nid
		"urn:osa:localhost:dep",                  // missing local
		"urn:osa:localhost:widget:abc",           // unknown type
		"urn:osa::dep:abc",                       // empty node
		"urn:osa:localhost:dep:",                 // empty local
		"urn:osa:localhost:dep:abc@1.0.0",        // depositions are unversioned
		"urn:osa:localhost:rec:abc@1.0.0",        // record version must be an integer
		"urn:osa:localhost:rec:abc@0",            // record version must be >= 1
		"urn:osa:localhost:conv:abc@2",           // convention version must be semver
		"urn:osa:localhost:conv:abc@01.0.0",      // leading zero
		"urn:osa:localhost:dep:has space",        // bad local charset
		"urn:osa:local host:dep:abc",             // bad node charset
		"urn:osa:localhost:dep:" + longLocal(65), // local too long
	}

	for _, in := range cases {
		t.Run(in, func(t *testing.T) {
			_, err := srn.Parse(in)
			require.ErrorIs(t, err, srn.ErrInvalid)
		})
	}
}

func longLocal(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func TestParseType(t *testing.T) {
	t.Parallel()

	s, err := srn.ParseType("urn:osa:localhost:dep:abc123", srn.TypeDeposition)
	require.NoError(t, err)
	require.Equal(t, srn.TypeDeposition, s.Type)

	_, err = srn.ParseType("urn:osa:localhost:rec:abc123@1", srn.TypeDeposition)
	require.ErrorIs(t, err, srn.ErrInvalid)
}

func TestRender(t *testing.T) {
	t.Parallel()

	s := srn.New("localhost", srn.TypeConvention, "sample-survey").WithVersion("1.0.0")
	require.Equal(t, "urn:osa:localhost:conv:sample-survey@1.0.0", s.String())

	d := srn.New("localhost", srn.TypeDeposition, "abc123")
	require.Equal(t, "urn:osa:localhost:dep:abc123", d.String())
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	type payload struct {
		SRN srn.SRN `json:"srn"`
	}

	in := payload{SRN: srn.MustParse("urn:osa:localhost:rec:abc123@2")}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{"srn":"urn:osa:localhost:rec:abc123@2"}`, string(raw))

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, in, out)
}
