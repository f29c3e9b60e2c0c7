/*
File: header_test.go
Description: Tests for the synthesized station header layout.
*/

package nexus_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/nexus2srs/pkg/nexus"
)

func TestSynthesizeHeaderLayout(t *testing.T) {
	header := nexus.SynthesizeHeader(12345, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	require.Len(t, header, 5)
	assert.Equal(t, " &SRS", header[0])
	assert.Equal(t, " SRSRUN=12345,SRSDAT=20240102,SRSTIM=030405,", header[1])
	assert.Equal(t, " SRSSTN='BASE',SRSPRJ='GDA_BASE',SRSEXP='Emulator',", header[2])
	assert.Equal(t, " SRSTLE='"+strings.Repeat(" ", 60)+"',", header[3])
	assert.Equal(t, " SRSCN1='        ',SRSCN2='        ',SRSCN3='        ',", header[4])
}
