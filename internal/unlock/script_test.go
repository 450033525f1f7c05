// SPDX-License-Identifier: MPL-2.0

package unlock

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	"github.com/ciocoa/manifest/internal/steam"
)

func TestManifestPins_ParsesAndSorts(t *testing.T) {
	t.Parallel()

	r := NewRunner(nil, steam.Paths{}, nil, log.New(io.Discard), Options{})
	pins := r.manifestPins([]string{
		"200_9999.manifest",
		"100_1234.manifest",
		"100_5678.manifest",
	})

	assert.Equal(t, []manifestPin{
		{DepotID: 100, ManifestID: "1234"},
		{DepotID: 100, ManifestID: "5678"},
		{DepotID: 200, ManifestID: "9999"},
	}, pins)
}

func TestManifestPins_SkipsMalformedNames(t *testing.T) {
	t.Parallel()

	r := NewRunner(nil, steam.Paths{}, nil, log.New(io.Discard), Options{})
	pins := r.manifestPins([]string{
		"100_1234.manifest",
		"nounderscore.manifest",
		"abc_def.txt",
		"xyz_123.manifest",
		"100_.manifest",
	})

	assert.Equal(t, []manifestPin{
		{DepotID: 100, ManifestID: "1234"},
	}, pins)
}
