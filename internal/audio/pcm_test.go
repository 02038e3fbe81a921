// SPDX-License-Identifier: MIT

package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClipFramesAndDuration(t *testing.T) {
	c := Clip{Format: DefaultFormat, Samples: make([]int16, 44100*2)}
	assert.Equal(t, 44100, c.Frames())
	assert.Equal(t, time.Second, c.Duration())
}

func TestMonoFold(t *testing.T) {
	c := Clip{
		Format:  Format{SampleRate: 44100, Channels: 2},
		Samples: []int16{100, 200, -100, -300},
	}
	assert.Equal(t, []int16{150, -200}, c.Mono())
}

func TestMonoPassthrough(t *testing.T) {
	c := Clip{
		Format:  Format{SampleRate: 44100, Channels: 1},
		Samples: []int16{1, 2, 3},
	}
	assert.Equal(t, c.Samples, c.Mono())
}

func TestFormatValidate(t *testing.T) {
	assert.NoError(t, DefaultFormat.Validate())
	assert.Error(t, Format{SampleRate: 0, Channels: 2}.Validate())
	assert.Error(t, Format{SampleRate: 44100, Channels: 3}.Validate())
}
