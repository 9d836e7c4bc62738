package target

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"epicscheduler/internal/result"
)

var (
	steve = Participant{ID: uuid.MustParse("8667ba71-b85a-4004-af54-457a9734eed7"), Name: "Steve"}
	alex  = Participant{ID: uuid.MustParse("ec561538-f3fd-461d-aff5-086b22154bce"), Name: "Alex"}
)

func testDirectory() *Static {
	return NewStatic([]Zone{
		{Name: "world", Participants: []Participant{steve}},
		{Name: "world_nether", Participants: []Participant{alex}},
		// A zone named like an identifier takes precedence over the identifier.
		{Name: alex.ID.String(), Participants: []Participant{steve}},
	})
}

func names(ps []Participant) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestResolve(t *testing.T) {
	t.Parallel()
	r := NewResolver(testDirectory())
	tests := []struct {
		name string
		spec string
		want []string
	}{
		{name: "blank", spec: "  ", want: []string{}},
		{name: "everyone", spec: result.Everyone, want: []string{"Steve", "Alex"}},
		{name: "raw everyone is not the sentinel", spec: "EVERYONE", want: []string{}},
		{name: "zone", spec: "world_nether", want: []string{"Alex"}},
		{name: "zone is exact", spec: "World", want: []string{}},
		{name: "zone before id", spec: alex.ID.String(), want: []string{"Steve"}},
		{name: "id", spec: steve.ID.String(), want: []string{"Steve"}},
		{name: "absent id", spec: uuid.NewString(), want: []string{}},
		{name: "no fuzzy match", spec: "Ste", want: []string{}},
		{name: "urn id", spec: "urn:uuid:" + steve.ID.String(), want: []string{}},
		{name: "braced id", spec: "{" + steve.ID.String() + "}", want: []string{}},
		{name: "undashed id", spec: strings.ReplaceAll(steve.ID.String(), "-", ""), want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, names(r.Resolve(tt.spec)))
		})
	}
}

func TestStaticZoneAssigned(t *testing.T) {
	t.Parallel()
	d := testDirectory()
	p, ok := d.Lookup(alex.ID)
	require.True(t, ok)
	require.Equal(t, "world_nether", p.Zone)
	require.Equal(t, []string{"world", "world_nether", alex.ID.String()}, d.Zones())

	d.Replace(nil)
	require.Empty(t, d.Online())
	_, ok = d.Lookup(alex.ID)
	require.False(t, ok)
}

func TestNilResolver(t *testing.T) {
	t.Parallel()
	var r *Resolver
	require.Nil(t, r.Resolve(result.Everyone))
}

func TestParseID(t *testing.T) {
	t.Parallel()
	id, ok := ParseID("8667BA71-B85A-4004-AF54-457A9734EED7")
	require.True(t, ok)
	require.Equal(t, steve.ID, id)

	for _, s := range []string{"", "Steve", "urn:uuid:8667ba71-b85a-4004-af54-457a9734eed7", "8667ba71b85a4004af54457a9734eed7", "8667ba71-b85a-4004-af54-457a9734eed7 "} {
		_, ok := ParseID(s)
		require.False(t, ok, s)
	}
}
