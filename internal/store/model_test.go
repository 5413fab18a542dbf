package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(docs []*Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestModel_SaveAssignsIDAndFindOne(t *testing.T) {
	ctx := context.Background()
	for name, m := range backends(t, "users") {
		t.Run(name, func(t *testing.T) {
			doc := m.New(map[string]any{"name": "ada"})
			require.False(t, doc.Saved())

			require.NoError(t, m.Save(ctx, doc))
			assert.Equal(t, "doc-1", doc.ID)
			assert.Equal(t, int64(1), doc.Seq)

			got, err := m.FindOne(ctx, "doc-1")
			require.NoError(t, err)
			assert.Equal(t, "ada", got.Fields["name"])
		})
	}
}

func TestModel_FindOneMissing(t *testing.T) {
	ctx := context.Background()
	for name, m := range backends(t, "users") {
		t.Run(name, func(t *testing.T) {
			_, err := m.FindOne(ctx, "nope")
			require.Error(t, err)
			assert.True(t, IsNotFound(err))
			assert.True(t, IsStoreError(err))
		})
	}
}

func TestModel_UpdateReplacesFields(t *testing.T) {
	ctx := context.Background()
	for name, m := range backends(t, "users") {
		t.Run(name, func(t *testing.T) {
			doc := m.New(map[string]any{"name": "ada"})
			require.NoError(t, m.Save(ctx, doc))

			doc.Set("name", "grace")
			doc.Set("role", "admiral")
			require.NoError(t, m.Save(ctx, doc))

			got, err := m.FindOne(ctx, doc.ID)
			require.NoError(t, err)
			assert.Equal(t, "grace", got.Fields["name"])
			assert.Equal(t, "admiral", got.Fields["role"])
			assert.Equal(t, doc.Seq, got.Seq, "update keeps insertion order")
		})
	}
}

func TestModel_UpdateDeletedDocumentFails(t *testing.T) {
	ctx := context.Background()
	for name, m := range backends(t, "users") {
		t.Run(name, func(t *testing.T) {
			doc := m.New(map[string]any{"name": "ada"})
			require.NoError(t, m.Save(ctx, doc))
			require.NoError(t, m.Remove(ctx, doc))

			err := m.Save(ctx, doc)
			assert.True(t, IsNotFound(err))
		})
	}
}

func TestModel_Remove(t *testing.T) {
	ctx := context.Background()
	for name, m := range backends(t, "users") {
		t.Run(name, func(t *testing.T) {
			doc := m.New(map[string]any{"name": "ada"})
			require.NoError(t, m.Save(ctx, doc))
			require.NoError(t, m.Remove(ctx, doc))

			_, err := m.FindOne(ctx, doc.ID)
			assert.True(t, IsNotFound(err))

			err = m.Remove(ctx, doc)
			assert.True(t, IsNotFound(err), "second remove reports not found")
		})
	}
}

func TestQuery_NaturalOrder(t *testing.T) {
	ctx := context.Background()
	for name, m := range backends(t, "posts") {
		t.Run(name, func(t *testing.T) {
			for _, title := range []string{"c", "a", "b"} {
				require.NoError(t, m.Save(ctx, m.New(map[string]any{"title": title})))
			}

			docs, err := m.Find().Exec(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"doc-1", "doc-2", "doc-3"}, ids(docs))
		})
	}
}

func TestQuery_SortByField(t *testing.T) {
	ctx := context.Background()
	for name, m := range backends(t, "posts") {
		t.Run(name, func(t *testing.T) {
			for _, date := range []string{"2024-02-01", "2024-03-01", "2024-01-01"} {
				require.NoError(t, m.Save(ctx, m.New(map[string]any{"date": date})))
			}

			asc, err := m.Find().Sort(&SortSpec{Field: "date"}).Exec(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"doc-3", "doc-1", "doc-2"}, ids(asc))

			desc, err := m.Find().Sort(&SortSpec{Field: "date", Descending: true}).Exec(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"doc-2", "doc-1", "doc-3"}, ids(desc))
		})
	}
}

func TestQuery_EmptyCollection(t *testing.T) {
	ctx := context.Background()
	for name, m := range backends(t, "empty") {
		t.Run(name, func(t *testing.T) {
			docs, err := m.Find().Exec(ctx)
			require.NoError(t, err)
			assert.NotNil(t, docs)
			assert.Empty(t, docs)
		})
	}
}

func TestCollections_AreIsolated(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	users := s.Collection("users")
	posts := s.Collection("posts")
	require.NoError(t, users.Save(ctx, users.New(map[string]any{"name": "ada"})))

	docs, err := posts.Find().Exec(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	n, err := s.Count(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_ResumesSequence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	m := s1.Collection("users")
	require.NoError(t, m.Save(ctx, m.New(nil)))
	require.NoError(t, m.Save(ctx, m.New(nil)))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, int64(2), s2.clock.Current())

	doc := s2.Collection("users").New(nil)
	require.NoError(t, s2.Collection("users").Save(ctx, doc))
	assert.Equal(t, int64(3), doc.Seq)
}

func TestMemory_DoesNotShareFieldMaps(t *testing.T) {
	ctx := context.Background()
	m := NewMemory().Collection("users")

	doc := m.New(map[string]any{"name": "ada"})
	require.NoError(t, m.Save(ctx, doc))
	doc.Fields["name"] = "mutated"

	got, err := m.FindOne(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Fields["name"])
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in      string
		want    *SortSpec
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "date", want: &SortSpec{Field: "date"}},
		{in: "-date", want: &SortSpec{Field: "date", Descending: true}},
		{in: "+name", want: &SortSpec{Field: "name"}},
		{in: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSort(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if got != nil {
				assert.Equal(t, tt.in != "+name", got.String() == tt.in)
			}
		})
	}
}

func TestDocument_MarshalView(t *testing.T) {
	doc := &Document{ID: "x", Fields: map[string]any{"a": 1}}
	assert.Equal(t, map[string]any{"_id": "x", "a": 1}, doc.MarshalView())
}
