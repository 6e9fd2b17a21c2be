package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuri-labs/docrag/internal/core/domain"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func sampleDoc(filename string) *domain.Document {
	parsed := domain.ParseFilename(filename)
	return &domain.Document{
		ID:               domain.DocumentID(filename),
		OriginalFilename: filename,
		StoredPath:       "/uploads/" + filename,
		Size:             1024,
		Date:             parsed.Date,
		DocType:          parsed.DocType,
		DocTitle:         parsed.DocTitle,
		CreatedAt:        time.Now(),
	}
}

func TestSaveAndGet(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	doc := sampleDoc("250211_재직증명서_센싱플러스.pdf")

	require.NoError(t, r.Save(ctx, doc))

	got, err := r.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.OriginalFilename, got.OriginalFilename)
	assert.Equal(t, "재직증명서", got.DocType)

	got, err = r.GetByFilename(ctx, doc.OriginalFilename)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.GetByFilename(ctx, "nope.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveUpsertsExistingID(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	doc := sampleDoc("250211_재직증명서_센싱플러스.pdf")

	require.NoError(t, r.Save(ctx, doc))
	doc.Size = 2048
	require.NoError(t, r.Save(ctx, doc))

	got, err := r.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2048, got.Size)

	docs, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestListDocTypesAndUpdate(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sampleDoc("250211_재직증명서_센싱플러스.pdf")))
	require.NoError(t, r.Save(ctx, sampleDoc("250103_지출결의서_운영비.pdf")))
	require.NoError(t, r.Save(ctx, sampleDoc("250104_지출결의서_출장비.pdf")))

	types, err := r.ListDocTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"재직증명서", "지출결의서"}, types)

	changed, err := r.UpdateDocType(ctx, "지출결의서", "지출결의")
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	types, err = r.ListDocTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"재직증명서", "지출결의"}, types)
}

func TestDeleteIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	doc := sampleDoc("250211_재직증명서_센싱플러스.pdf")

	require.NoError(t, r.Save(ctx, doc))
	require.NoError(t, r.Delete(ctx, doc.ID))
	require.NoError(t, r.Delete(ctx, doc.ID))

	_, err := r.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
