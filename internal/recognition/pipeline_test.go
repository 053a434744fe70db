package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skydexapp/skydex/internal/catalog"
)

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return NewPipeline(catalog.MustLoad())
}

func TestBuildResult(t *testing.T) {
	p := newPipeline(t)

	res, err := p.BuildResult(sampleCompletion)
	require.NoError(t, err)

	assert.Equal(t, "cirrus", res.CloudID)
	assert.Equal(t, "卷云", res.CloudName)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
	assert.Equal(t, 10, res.Score)
	assert.Equal(t, catalog.RarityCommon, res.Rarity)
	assert.Equal(t, "卷云", res.Analysis.Genus)
	assert.Equal(t, "毛卷云", res.Analysis.Species)
}

func TestBuildResultGenusFallback(t *testing.T) {
	p := newPipeline(t)

	// species field is noise, genus still resolves
	res, err := p.BuildResult("**云属**：积雨云\n**云种/变种**：看不出来是什么\n**识别置信度**：5")
	require.NoError(t, err)
	assert.Equal(t, "cumulonimbus", res.CloudID)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
}

func TestBuildResultNoMatch(t *testing.T) {
	p := newPipeline(t)

	for _, content := range []string{
		"",
		"今天天气不错",
		"**云属**：完全无法判断\n**云种/变种**：同样无法判断",
	} {
		_, err := p.BuildResult(content)
		assert.ErrorIs(t, err, ErrNoMatch, "content=%q", content)
	}
}

func TestBuildResultDefaultConfidence(t *testing.T) {
	p := newPipeline(t)

	res, err := p.BuildResult("**云属**：高积云")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, res.Confidence, 1e-9)
}
