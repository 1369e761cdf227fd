package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbchat/internal/domain"
)

func chunk(id, source string, index int, content string, vec []float32) domain.DocumentChunk {
	return domain.DocumentChunk{
		ID:         id,
		Content:    content,
		SourceFile: source,
		ChunkIndex: index,
		Embedding:  vec,
		UploadDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestUpsertBatch_DimensionEnforced(t *testing.T) {
	s := NewStore(3)
	err := s.UpsertBatch(context.Background(), []domain.DocumentChunk{
		chunk("a_0", "a.pdf", 0, "text", []float32{1, 0}),
	})
	var ie *domain.IndexError
	require.ErrorAs(t, err, &ie)
}

func TestUpsertBatch_OverwritesByID(t *testing.T) {
	s := NewStore(3)
	ctx := context.Background()
	require.NoError(t, s.UpsertBatch(ctx, []domain.DocumentChunk{
		chunk("a_0", "a.pdf", 0, "old", []float32{1, 0, 0}),
	}))
	require.NoError(t, s.UpsertBatch(ctx, []domain.DocumentChunk{
		chunk("a_0", "a.pdf", 0, "new", []float32{1, 0, 0}),
	}))
	assert.Equal(t, 1, s.Len())
}

func TestVectorQuery_RanksByCosine(t *testing.T) {
	s := NewStore(3)
	ctx := context.Background()
	require.NoError(t, s.UpsertBatch(ctx, []domain.DocumentChunk{
		chunk("a_0", "a.pdf", 0, "close", []float32{1, 0, 0}),
		chunk("a_1", "a.pdf", 1, "far", []float32{0, 1, 0}),
		chunk("a_2", "a.pdf", 2, "мiddle", []float32{1, 1, 0}),
	}))

	results, err := s.VectorQuery(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a_0", results[0].ChunkID)
	assert.GreaterOrEqual(t, results[0].RelevanceScore, results[1].RelevanceScore)
}

func TestVectorQuery_DimensionMismatch(t *testing.T) {
	s := NewStore(3)
	_, err := s.VectorQuery(context.Background(), []float32{1, 0}, 5)
	var ie *domain.IndexError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "400", ie.Status)
}

func TestTextQuery_LexicalRanking(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()
	require.NoError(t, s.UpsertBatch(ctx, []domain.DocumentChunk{
		chunk("t_0", "tax.pdf", 0, "You can deduct home office expenses when self employed.", []float32{1, 0}),
		chunk("t_1", "tax.pdf", 1, "Quarterly filings are due in April June September January.", []float32{0, 1}),
	}))

	results, err := s.TextQuery(ctx, "deduct home office expenses", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "t_0", results[0].ChunkID)
}

func TestTextQuery_NoMatchesIsEmptyNotError(t *testing.T) {
	s := NewStore(2)
	results, err := s.TextQuery(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteSource(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()
	require.NoError(t, s.UpsertBatch(ctx, []domain.DocumentChunk{
		chunk("a_0", "a.pdf", 0, "keep other", []float32{1, 0}),
		chunk("b_0", "b.pdf", 0, "drop this", []float32{0, 1}),
		chunk("b_1", "b.pdf", 1, "drop this too", []float32{0, 1}),
	}))

	require.NoError(t, s.DeleteSource(ctx, "b.pdf"))
	assert.Equal(t, 1, s.Len())
}

func TestQueries_RespectTopK(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()
	var chunks []domain.DocumentChunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, chunk("x_"+string(rune('a'+i)), "x.pdf", i, "common words everywhere", []float32{1, 1}))
	}
	require.NoError(t, s.UpsertBatch(ctx, chunks))

	vres, err := s.VectorQuery(ctx, []float32{1, 1}, 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(vres), 5)

	tres, err := s.TextQuery(ctx, "common words", 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(tres), 5)
}
