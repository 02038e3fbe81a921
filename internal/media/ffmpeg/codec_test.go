// SPDX-License-Identifier: MIT

package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhsavell/beat-func/internal/audio"
)

func TestNewCodecDefaults(t *testing.T) {
	c, err := NewCodec("", "", audio.DefaultFormat)
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg", c.ffmpegPath)
	assert.Equal(t, "ffprobe", c.ffprobePath)
	assert.Equal(t, audio.DefaultFormat, c.Format())
}

func TestNewCodecRejectsBadFormat(t *testing.T) {
	_, err := NewCodec("", "", audio.Format{SampleRate: 0, Channels: 2})
	assert.Error(t, err)
}

func TestSampleByteRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}

	raw := samplesToBytes(samples)
	require.Len(t, raw, len(samples)*2)

	back, err := bytesToSamples(raw)
	require.NoError(t, err)
	assert.Equal(t, samples, back)
}

func TestBytesToSamplesOddLength(t *testing.T) {
	_, err := bytesToSamples([]byte{0x01, 0x02, 0x03})
	assert.Error(t, err)
}

func TestLineRingKeepsLastLines(t *testing.T) {
	ring := NewLineRing(3)

	for _, line := range []string{"one", "two", "three", "four"} {
		_, err := ring.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"two", "three", "four"}, ring.LastN(3))
	assert.Equal(t, []string{"three", "four"}, ring.LastN(2))
}

func TestLineRingMultiLineWrite(t *testing.T) {
	ring := NewLineRing(10)

	_, err := ring.Write([]byte("a\nb\nc\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ring.LastN(10))
	assert.Equal(t, "b; c", ring.Tail(2))
}
