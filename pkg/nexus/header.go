/*
File: header.go
Description: Synthesized station header. Used when a scan file carries no
verbatim header block; reproduces the fixed layout the legacy acquisition
software emitted, with the run identifier and timestamp filled in.
*/

package nexus

import (
	"fmt"
	"strings"
	"time"
)

const (
	headerDateFormat = "20060102"
	headerTimeFormat = "150405"
)

// SynthesizeHeader returns the fixed legacy header lines for a run.
func SynthesizeHeader(runID int, t time.Time) []string {
	return []string{
		" &SRS",
		fmt.Sprintf(" SRSRUN=%d,SRSDAT=%s,SRSTIM=%s,",
			runID, t.Format(headerDateFormat), t.Format(headerTimeFormat)),
		" SRSSTN='BASE',SRSPRJ='GDA_BASE',SRSEXP='Emulator',",
		fmt.Sprintf(" SRSTLE='%s',", strings.Repeat(" ", 60)),
		" SRSCN1='        ',SRSCN2='        ',SRSCN3='        ',",
	}
}
