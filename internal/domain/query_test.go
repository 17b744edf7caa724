package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Validate(t *testing.T) {
	t.Parallel()

	valid := Query{Collection: "cities", Fields: CityFields, OrderBy: "name", Ascending: true}

	tests := []struct {
		name    string
		q       Query
		wantErr bool
	}{
		{name: "valid", q: valid},
		{name: "with filters", q: valid.With(Eq("state_id", "4"), ILike("name", "%ber%"))},
		{name: "bad collection", q: Query{Collection: "cities; drop"}, wantErr: true},
		{name: "bad field", q: Query{Collection: "cities", Fields: []string{"Name"}}, wantErr: true},
		{name: "bad sort", q: Query{Collection: "cities", OrderBy: "name desc"}, wantErr: true},
		{name: "bad filter column", q: valid.With(Filter{Column: "x-y", Op: OpEq}), wantErr: true},
		{name: "bad operator", q: valid.With(Filter{Column: "id", Op: "gt"}), wantErr: true},
		{name: "negative limit", q: Query{Collection: "cities", Limit: -1}, wantErr: true},
		{name: "filter group", q: valid.With(AnyOf(ILike("name", "%a%"), Eq("timezone", "UTC")))},
		{name: "empty filter group", q: valid.With(AnyOf()), wantErr: true},
		{name: "bad column in group", q: valid.With(AnyOf(Eq("Name", "x"))), wantErr: true},
		{name: "nested group", q: valid.With(AnyOf(AnyOf(Eq("name", "x")))), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.q.Validate()
			if tc.wantErr {
				require.Error(t, err)
				var ve *ValidationError
				assert.ErrorAs(t, err, &ve)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestQuery_WithDoesNotAlias(t *testing.T) {
	t.Parallel()

	base := Query{Collection: "profiles", Filters: make([]Filter, 0, 4)}
	a := base.With(Eq("role", "admin"))
	b := base.With(Eq("role", "user"))

	assert.Empty(t, base.Filters)
	assert.Equal(t, "admin", a.Filters[0].Value)
	assert.Equal(t, "user", b.Filters[0].Value)
}

func TestPageRequest(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultPageSize, PageRequest{}.Limit())
	assert.Equal(t, MaxPageSize, PageRequest{PageSize: 5000}.Limit())
	assert.Equal(t, 0, PageRequest{PageToken: "!!"}.Offset())

	tok := EncodePageToken(50)
	assert.Equal(t, 50, PageRequest{PageToken: tok}.Offset())
	assert.Equal(t, "", EncodePageToken(0))

	assert.Equal(t, "", NextPageToken(0, 25, 10))
	assert.Equal(t, EncodePageToken(25), NextPageToken(0, 25, 25))

	q := PageRequest{PageSize: 10, PageToken: EncodePageToken(20)}.Apply(Query{Collection: "invoices"})
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 20, q.Offset)
}

func TestContainsPattern(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "%bob%", ContainsPattern("bob"))
	assert.Equal(t, `%50\%%`, ContainsPattern("50%"))
	assert.Equal(t, `%a\_b%`, ContainsPattern("a_b"))
	assert.Equal(t, `%c:\\tmp%`, ContainsPattern(`c:\tmp`))
}
